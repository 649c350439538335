package version

var (
	AppName     = "Tunesmith"
	AppFullName = "Tunesmith Discord Bot"
	Version     = "dev"
)
