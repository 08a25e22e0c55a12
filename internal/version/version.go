package version

const (
	AppName    = "Quaver"
	AppVersion = "0.3.0"
)
