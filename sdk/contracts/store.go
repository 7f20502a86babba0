package contracts

// ProfileStore supplies mapping profiles by name. The playback core only
// ever reads from it.
type ProfileStore interface {
	Profile(name string) (*Profile, error)
	Names() ([]string, error)
}
