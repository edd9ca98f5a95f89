package product

import (
	"context"
	"fmt"
)

// MediaImporter imports a remote image and returns its media id.
type MediaImporter interface {
	Import(ctx context.Context, url, fileName string) (string, error)
}

type imageProcessor struct {
	media      MediaImporter
	associator *associator
}

func (p imageProcessor) Process(ctx context.Context, w *Write) error {
	images := w.Request.Images
	if images == nil {
		return nil
	}

	cover := coverIndex(images)
	media := make([]map[string]interface{}, 0, len(images))
	expected := make([]string, 0, len(images))
	for i, img := range images {
		mediaID, err := p.media.Import(ctx, img.URL, img.FileName)
		if err != nil {
			return fmt.Errorf("failed to import image %s: %w", img.URL, err)
		}
		id, err := combine(w.ProductID, mediaID)
		if err != nil {
			return err
		}
		expected = append(expected, id)
		media = append(media, map[string]interface{}{
			"id":       id,
			"mediaId":  mediaID,
			"position": i + 1,
		})
	}

	if err := p.associator.replaceOwned(ctx, "product_media", w.ProductID, expected); err != nil {
		return fmt.Errorf("failed to reconcile product media: %w", err)
	}

	w.Payload["media"] = media
	if cover >= 0 {
		w.Payload["coverId"] = expected[cover]
	} else {
		w.Payload["coverId"] = nil
	}
	return nil
}

// coverIndex picks the first image unless an image is flagged as cover. With
// several flags the last one wins.
func coverIndex(images []Image) int {
	if len(images) == 0 {
		return -1
	}
	cover := 0
	for i, img := range images {
		if img.IsCover {
			cover = i
		}
	}
	return cover
}
