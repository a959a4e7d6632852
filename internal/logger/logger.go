package logger

import "go.uber.org/zap"

// New builds the process logger. Production config for env "production",
// development config otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
