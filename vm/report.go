package vm

import (
	stderrors "errors"

	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

// report logs a failure once, at the point it is observed. Engine
// errors and guest traps arrive through the same error value; a guest
// exit carries its code.
func report(log *zap.Logger, msg string, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Error(err)}
	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		fields = append(fields, zap.Uint32("exit_code", exit.ExitCode()))
	}
	log.Error(msg, fields...)
}
