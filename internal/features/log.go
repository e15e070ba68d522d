package features

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OpenLog returns a logger that appends one JSON object per record to path.
// The returned close function syncs and closes the file.
func OpenLog(path string) (*zap.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.MessageKey = "reason"
	enc.LevelKey = ""
	enc.CallerKey = ""
	enc.StacktraceKey = ""

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), zap.DebugLevel)
	logger := zap.New(core)

	closeFn := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}

// LogResult appends every violation of res to the validation log.
func LogResult(log *zap.Logger, res Result) {
	for _, v := range res.Violations {
		log.Warn(v.Reason,
			zap.String("word", v.Word),
			zap.String("lang", v.Lang),
			zap.String("field", v.Field))
	}
}
