// Package provision downloads model artifacts listed in a YAML manifest into
// the models directory. Each download is verified against a pinned SHA-256
// and written atomically; files already present with the right digest are
// left alone. Classifiers never download at request time; they only read
// what provisioning wrote.
package provision
