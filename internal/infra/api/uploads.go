package api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/infra/storage"
)

const imagesField = "images"

// listing form fields that are not plain strings
var (
	intFields  = map[string]bool{"price": true, "bedrooms": true, "bathrooms": true}
	boolFields = map[string]bool{"isFeatured": true, "isActive": true}
)

// readListingRequest decodes a listing payload from JSON or multipart form
// data into dst and stores any attached images. Stored files are handed to the
// use case, which owns them from then on.
func (s *Server) readListingRequest(w http.ResponseWriter, r *http.Request, dst interface{}) ([]model.UploadedFile, error) {
	if !isMultipart(r) {
		return nil, s.decodeJSON(w, r, dst)
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.opts.MaxFiles)*s.opts.MaxFileBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	raw, err := formJSON(r.MultipartForm.Value)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, &domain.MalformedInputError{Field: "body", Err: err}
	}
	return s.saveImages(r.Context(), r.MultipartForm.File[imagesField])
}

// formJSON turns form values into a JSON object. Nested objects stay JSON
// strings; the use case decodes those itself.
func formJSON(values url.Values) ([]byte, error) {
	doc := make(map[string]interface{}, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch {
		case intFields[key]:
			if v == "" {
				continue
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, &domain.MalformedInputError{Field: key, Err: err}
			}
			doc[key] = n
		case boolFields[key]:
			if v == "" {
				continue
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, &domain.MalformedInputError{Field: key, Err: err}
			}
			doc[key] = b
		case key == "features" && len(vals) > 1:
			doc[key] = vals
		default:
			doc[key] = v
		}
	}
	return json.Marshal(doc)
}

// saveImages checks every file before storing any, then stores them under
// fresh keys. A failure removes what was already stored.
func (s *Server) saveImages(ctx context.Context, headers []*multipart.FileHeader) ([]model.UploadedFile, error) {
	if len(headers) > s.opts.MaxFiles {
		return nil, fmt.Errorf("%w: at most %d images per request", domain.ErrInvalidArgument, s.opts.MaxFiles)
	}
	for _, fh := range headers {
		if fh.Size > s.opts.MaxFileBytes {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidArgument, fh.Filename, s.opts.MaxFileBytes)
		}
		if _, err := storage.ContentType(fh.Filename); err != nil {
			return nil, fmt.Errorf("%w: invalid file format, only jpeg, jpg, png, gif, webp allowed", domain.ErrInvalidArgument)
		}
	}

	files := make([]model.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := s.saveImage(ctx, fh)
		if err != nil {
			s.dropImages(ctx, files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (s *Server) saveImage(ctx context.Context, fh *multipart.FileHeader) (model.UploadedFile, error) {
	ct, _ := storage.ContentType(fh.Filename)
	key, err := storage.NewKey(fh.Filename)
	if err != nil {
		return model.UploadedFile{}, err
	}
	src, err := fh.Open()
	if err != nil {
		return model.UploadedFile{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	if err := s.Storage.Save(ctx, key, src, fh.Size, ct); err != nil {
		return model.UploadedFile{}, fmt.Errorf("store upload %s: %w", fh.Filename, err)
	}
	return model.UploadedFile{Path: key, OriginalFilename: fh.Filename, MimeType: ct}, nil
}

func (s *Server) dropImages(ctx context.Context, files []model.UploadedFile) {
	for _, f := range files {
		if err := s.Storage.Delete(context.WithoutCancel(ctx), f.Path); err != nil {
			s.log.Warn().Err(err).Str("key", f.Path).Msg("stored upload not removed")
		}
	}
}
