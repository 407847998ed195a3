// ABOUTME: Lyrics HTTP handlers
// ABOUTME: Health, fetch and update endpoints over the configured store
package server

import (
	"errors"
	"strings"

	"github.com/Resonate-Protocol/resonate-lyrics/internal/store"
	"github.com/Resonate-Protocol/resonate-lyrics/internal/version"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lrc"
	"github.com/Resonate-Protocol/resonate-lyrics/pkg/lyrics"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// maxLyricsBytes bounds the lyrics text of an update
const maxLyricsBytes = 256 << 10

// updateBody is the validated form of store.UpdateRequest
type updateBody struct {
	Lyrics   string `json:"lyrics" validate:"max=262144"`
	IsSynced *bool  `json:"is_synced" validate:"required"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "success",
		"product":      version.Product,
		"manufacturer": version.Manufacturer,
		"version":      version.Version,
	})
}

func (s *Server) handleGetLyrics(c *fiber.Ctx) error {
	songID := c.Params("id")
	if !store.ValidSongID(songID) {
		return respondWithError(c, fiber.StatusBadRequest, "invalid song id")
	}

	doc, err := s.store.Fetch(c.UserContext(), songID)
	if errors.Is(err, lyrics.ErrNotFound) {
		return respondWithError(c, fiber.StatusNotFound, "lyrics not found")
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"song_id":    songID,
			"request_id": requestID(c),
		}).Error("Lyrics fetch failed")
		return respondWithError(c, fiber.StatusInternalServerError, "failed to load lyrics")
	}

	return c.JSON(store.LyricsResponse{
		Status:   "success",
		SongID:   songID,
		Lyrics:   doc.RawText,
		IsSynced: doc.Synced,
	})
}

func (s *Server) handleUpdateLyrics(c *fiber.Ctx) error {
	songID := c.Params("id")
	if !store.ValidSongID(songID) {
		return respondWithError(c, fiber.StatusBadRequest, "invalid song id")
	}

	body := new(updateBody)
	if err := c.BodyParser(body); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, "cannot parse lyrics JSON: "+err.Error())
	}
	if err := s.validate.Struct(body); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, strings.Join(formatValidationErrors(err), "; "))
	}

	synced := *body.IsSynced
	if synced && lrc.Parse(body.Lyrics) == nil {
		return respondWithError(c, fiber.StatusBadRequest, "synced lyrics contain no timestamps")
	}

	logger := s.log.WithFields(logrus.Fields{
		"song_id":    songID,
		"synced":     synced,
		"request_id": requestID(c),
	})

	if err := s.store.Save(c.UserContext(), songID, body.Lyrics, synced); err != nil {
		logger.WithError(err).Error("Lyrics save failed")
		return respondWithError(c, fiber.StatusInternalServerError, "failed to save lyrics")
	}

	logger.Info("Lyrics updated")
	return c.JSON(fiber.Map{
		"status":  "success",
		"song_id": songID,
	})
}
