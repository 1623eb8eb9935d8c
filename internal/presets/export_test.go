package presets

import homedir "github.com/mitchellh/go-homedir"

// homedirReset drops go-homedir's cached home directory so tests can point
// HOME at a temp dir.
func homedirReset() {
	homedir.Reset()
}
