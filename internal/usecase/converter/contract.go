package converter

import "upload-converter/internal/domain"

type fileRepository interface {
	Size(path string) (int64, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Remove(path string) error
}

type configProvider interface {
	ConversionConfig() domain.ConversionConfig
}
