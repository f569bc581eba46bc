package domain

import "errors"

// ErrNotRepository is returned when the working directory is not inside a
// git repository. Callers can check for it using errors.Is.
var ErrNotRepository = errors.New("not a git repository")

// ErrNoRemote is returned when the repository has no "origin" remote
// configured.
var ErrNoRemote = errors.New("no remote 'origin' configured")

// ErrNoCredential is returned by credential lookups when no token can be
// found in the keyring, the environment, or the config file.
var ErrNoCredential = errors.New("no release credential configured")
