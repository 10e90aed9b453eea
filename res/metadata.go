package res

const (
	AppName       = "autopause"
	DisplayName   = "Autopause"
	AppVersion    = "0.3.0"
	AppVersionTag = "v" + AppVersion
	GithubURL     = "https://github.com/dweymouth/autopause"

	// Defaults for the player that gets paused and resumed.
	DefaultTargetBusName  = "org.mpris.MediaPlayer2.spotify"
	DefaultTargetIdentity = "Spotify"
)

const ShortDescription = `Pause Spotify while another media player is playing, and resume it afterwards.`
