package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. Debug mode uses the development encoder.
func New(debug bool) (l *zap.Logger, err error) {
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return l, nil
}
