package api

import (
	"errors"
	"io"
	"net/http"
)

// MaxUploadSize bounds accepted photo uploads, mirroring the API's 4 MB
// file size limit.
const MaxUploadSize = 4 << 20

// ErrFileTooLarge is returned when an upload exceeds MaxUploadSize.
var ErrFileTooLarge = errors.New("api: file exceeds upload limit")

// FormFileFromRequest extracts an optional uploaded file from a multipart
// request. A missing file is not an error: both return values are nil.
func FormFileFromRequest(r *http.Request, field string) (*FormFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	// Browsers submit an empty part when the file input is left blank.
	if header.Filename == "" && len(data) == 0 {
		return nil, nil
	}
	return &FormFile{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
