package logger

var (
	CollectMessages = collectMessages
	FormatError     = formatError
)
