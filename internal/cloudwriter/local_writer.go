package cloudwriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// LocalWriterFactory mirrors the bucket layout under a local directory.
type LocalWriterFactory struct {
	basePath string
}

type LocalWriter struct {
	path   string
	buffer bytes.Buffer
}

func NewLocalWriterFactory(basePath string) *LocalWriterFactory {
	return &LocalWriterFactory{basePath: basePath}
}

func (f *LocalWriterFactory) NewWriter(bucket, objectPath string) (CloudWriter, error) {
	return &LocalWriter{path: filepath.Join(f.basePath, bucket, filepath.FromSlash(objectPath))}, nil
}

func (w *LocalWriter) Write(data []byte) (int, error) {
	return w.buffer.Write(data)
}

func (w *LocalWriter) Close() error {
	if err := os.MkdirAll(filepath.Dir(w.path), os.ModePerm); err != nil {
		return err
	}
	if err := os.WriteFile(w.path, w.buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", w.path, err)
	}
	return nil
}
