package repository

import (
	"context"
	"fmt"

	"github.com/yusakuma/feed-service/internal/domain"
)

// UpsertVideos writes catalog records, replacing metadata for existing ids.
func (r *Repository) UpsertVideos(ctx context.Context, videos []domain.VideoRecord) error {
	for _, v := range videos {
		attrs := v.Attributes
		if attrs == nil {
			attrs = &domain.Attributes{}
		}
		_, err := r.pool.Exec(ctx,
			`INSERT INTO videos
				(id, embed_type, title, description, embed_src, offer_name, offer_url,
				 category, tags, studio, genres, duration_seconds, release_date,
				 popularity, moods, time_of_day)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, '')::date, $14, $15, $16)
			 ON CONFLICT (id) DO UPDATE SET
				embed_type = EXCLUDED.embed_type,
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				embed_src = EXCLUDED.embed_src,
				offer_name = EXCLUDED.offer_name,
				offer_url = EXCLUDED.offer_url,
				category = EXCLUDED.category,
				tags = EXCLUDED.tags,
				studio = EXCLUDED.studio,
				genres = EXCLUDED.genres,
				duration_seconds = EXCLUDED.duration_seconds,
				release_date = EXCLUDED.release_date,
				popularity = EXCLUDED.popularity,
				moods = EXCLUDED.moods,
				time_of_day = EXCLUDED.time_of_day`,
			v.ID, v.EmbedType, v.Title, v.Description, v.EmbedSrc,
			v.Offer.Name, v.Offer.URL, v.Category, v.Tags,
			attrs.Studio, attrs.Genre, attrs.DurationSeconds, attrs.ReleaseDate,
			attrs.Popularity, attrs.Mood, attrs.TimeOfDay,
		)
		if err != nil {
			return fmt.Errorf("upsert video %s: %w", v.ID, err)
		}
	}
	return nil
}

// LoadVideos reads the persisted catalog back in insertion order.
func (r *Repository) LoadVideos(ctx context.Context) ([]domain.VideoRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, embed_type, title, description, embed_src, offer_name, offer_url,
			category, tags, studio, genres, duration_seconds,
			COALESCE(to_char(release_date, 'YYYY-MM-DD'), ''),
			popularity, moods, time_of_day
		 FROM videos ORDER BY inserted_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []domain.VideoRecord
	for rows.Next() {
		var v domain.VideoRecord
		attrs := &domain.Attributes{}
		err := rows.Scan(&v.ID, &v.EmbedType, &v.Title, &v.Description, &v.EmbedSrc,
			&v.Offer.Name, &v.Offer.URL, &v.Category, &v.Tags,
			&attrs.Studio, &attrs.Genre, &attrs.DurationSeconds, &attrs.ReleaseDate,
			&attrs.Popularity, &attrs.Mood, &attrs.TimeOfDay)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		attrs.Tags = v.Tags
		v.Attributes = attrs
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over videos: %w", err)
	}
	return videos, nil
}

// CountVideos returns the number of persisted catalog records.
func (r *Repository) CountVideos(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return total, nil
}
