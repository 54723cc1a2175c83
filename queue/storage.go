package queue

import (
	"io"
	"os"
)

// Storage is the medium a QueueFile lives in.
// Writes must reach the medium by the time Sync returns.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Size returns the current size of the medium.
	Size() (int64, error)

	// Truncate changes the size of the medium. Growing it must leave existing bytes in place.
	Truncate(size int64) error

	// Sync commits written data to the medium.
	Sync() error
}

// OpenFile opens or creates the file at path as queue storage.
func OpenFile(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileStorage{File: f}, nil
}

// FileStorage is Storage backed by a file.
type FileStorage struct {
	*os.File
}

// Size implements Storage.
func (s *FileStorage) Size() (int64, error) {
	fi, err := s.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (s *FileStorage) String() string { return s.Name() }
