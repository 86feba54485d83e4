package logger

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/RedHatInsights/tenant_provisioner/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/google/uuid"
	lc "github.com/redhatinsights/platform-go-middlewares/logging/cloudwatch"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const loggerKey ctxKey = iota

// Log is the process wide logger, configured by InitLogger
var Log = logrus.New()

// InitLogger configures the process logger from cfg and adds the CloudWatch
// hook when AWS credentials are present
func InitLogger(cfg *config.TenantProvisionerConfig) *logrus.Logger {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetOutput(os.Stdout)
	Log.SetLevel(level)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "@timestamp",
		},
	})

	if cfg.AwsAccessKeyId != "" {
		cred := credentials.NewStaticCredentials(cfg.AwsAccessKeyId, cfg.AwsSecretAccessKey, "")
		awsconf := aws.NewConfig().WithRegion(cfg.AwsRegion).WithCredentials(cred)
		hook, err := lc.NewBatchingHook(cfg.LogGroup, cfg.Hostname, awsconf, 10*time.Second)
		if err != nil {
			Log.Errorf("Error creating CloudWatch hook %v", err)
		} else {
			Log.AddHook(hook)
		}
	}
	return Log
}

// CtxWithLogger stores a request scoped entry in the context
func CtxWithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// CtxWithLoggerID stores an entry tagged with the given request id
func CtxWithLoggerID(ctx context.Context, id string) context.Context {
	return CtxWithLogger(ctx, Log.WithField("request_id", id))
}

// GetLogger returns the entry stored in ctx, or a fresh entry with a
// generated request id
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
			return entry
		}
	}
	return Log.WithField("request_id", uuid.New().String())
}

var passwordRe = regexp.MustCompile(`:([^:@/]+)@`)

// MaskDSN hides the password embedded in a connection string
func MaskDSN(dsn string) string {
	return passwordRe.ReplaceAllString(dsn, ":****@")
}
