package pets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/blob"
)

// MaxPhotoBytes es el tamaño máximo aceptado para la foto de una mascota.
const MaxPhotoBytes = 5 << 20

// UploadPhoto valida el contenido (sniffing, no el header del cliente),
// lo guarda en el blob store y reemplaza la foto anterior.
func (s *Service) UploadPhoto(ctx context.Context, petID, username string, r io.Reader) (Pet, error) {
	if _, err := s.access.GetPetAndValidate(ctx, petID, username); err != nil {
		return Pet{}, err
	}
	if s.photos == nil {
		return Pet{}, apperr.Wrap(apperr.Internal, errors.New("photo storage not configured"))
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return Pet{}, apperr.New(apperr.BadRequest, "could not read photo")
	}
	if len(data) == 0 {
		return Pet{}, apperr.New(apperr.MissingParameter, "photo is required")
	}
	if len(data) > MaxPhotoBytes {
		return Pet{}, apperr.New(apperr.ValidationError, "photo exceeds 5 MiB")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Pet{}, apperr.New(apperr.ValidationError, "photo must be an image, got "+mt.String())
	}

	current, err := s.load(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	key := "pets/" + petID + "/" + uuid.NewString() + mt.Extension()
	if _, err := s.photos.Put(ctx, key, bytes.NewReader(data), mt.String()); err != nil {
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	if err := s.repo.SetPhoto(ctx, petID, key); err != nil {
		_, _ = s.photos.Delete(ctx, key)
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}

	if current.PhotoRef != "" {
		if _, err := s.photos.Delete(ctx, current.PhotoRef); err != nil {
			logger.FromContext(ctx, s.log).Warn("old photo delete failed", map[string]any{
				"key": current.PhotoRef,
				"err": err,
			})
		}
	}

	current.PhotoRef = key
	return current, nil
}

// Photo abre la foto actual. El caller cierra el reader.
func (s *Service) Photo(ctx context.Context, petID, username string) (blob.Info, io.ReadCloser, error) {
	if _, err := s.access.GetPetAndValidate(ctx, petID, username); err != nil {
		return blob.Info{}, nil, err
	}
	p, err := s.load(ctx, petID)
	if err != nil {
		return blob.Info{}, nil, err
	}
	if p.PhotoRef == "" || s.photos == nil {
		return blob.Info{}, nil, apperr.New(apperr.NotFound, "pet has no photo")
	}

	info, rc, err := s.photos.Get(ctx, p.PhotoRef)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return blob.Info{}, nil, apperr.New(apperr.NotFound, "pet has no photo")
		}
		return blob.Info{}, nil, apperr.Wrap(apperr.Internal, err)
	}
	return info, rc, nil
}

func (s *Service) DeletePhoto(ctx context.Context, petID, username string) error {
	if _, err := s.access.GetPetAndValidate(ctx, petID, username); err != nil {
		return err
	}
	p, err := s.load(ctx, petID)
	if err != nil {
		return err
	}
	if p.PhotoRef == "" {
		return apperr.New(apperr.NotFound, "pet has no photo")
	}

	if err := s.repo.SetPhoto(ctx, petID, ""); err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	if s.photos != nil {
		if _, err := s.photos.Delete(ctx, p.PhotoRef); err != nil {
			logger.FromContext(ctx, s.log).Warn("photo delete failed", map[string]any{
				"key": p.PhotoRef,
				"err": err,
			})
		}
	}
	return nil
}
