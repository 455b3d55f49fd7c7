package storage

import (
	"bytes"
	"io"
	"time"
)

// Storage is an abstraction of a blob store (eg GCS) that holds our media objects.
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(name string) (*File, error)

	// DeleteFile is idempotent: deleting a name that does not exist is not an error.
	DeleteFile(name string) error

	// URL returns a public retrieval URL for the object.
	URL(name string) (string, error)
}

// File is an element in blob storage.
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

func WriteFile(s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

// UploadFile writes 'content' under 'name', and returns the object's public URL.
func UploadFile(s Storage, name string, content []byte) (string, error) {
	if err := WriteFile(s, name, bytes.NewReader(content)); err != nil {
		return "", err
	}
	return s.URL(name)
}

func ReadFile(s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	return io.ReadAll(f.Reader)
}
