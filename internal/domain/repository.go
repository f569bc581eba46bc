package domain

// Repository identifies the git repository being released.
type Repository struct {
	Owner     string
	Name      string
	RemoteURL string
}
