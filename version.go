package weft

// Version is the module version string, overridden at release build time
// with -ldflags "-X github.com/weftworks/weft.Version=...".
var Version = "dev"
