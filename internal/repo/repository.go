// internal/repo/repository.go
// Package repo implements the archive's record operations on top of the
// storage, media, event and ai packages. It owns record assembly (ids, age
// snapshot, timestamps), the search scan, and the media attachment rules.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shahed-archive/shahed-archive-go/internal/ai"
	"github.com/shahed-archive/shahed-archive-go/internal/event"
	"github.com/shahed-archive/shahed-archive-go/internal/media"
	"github.com/shahed-archive/shahed-archive-go/internal/metrics"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
	"github.com/shahed-archive/shahed-archive-go/internal/schema"
	"github.com/shahed-archive/shahed-archive-go/internal/storage"
)

// Sentinel errors surfaced to the HTTP layer for status mapping.
var (
	ErrNoUploader     = errors.New("object storage not configured")
	ErrUploadFailed   = errors.New("media upload failed")
	ErrLocalAsset     = errors.New("placeholder asset has no stored object")
	ErrUnknownCounter = errors.New("unknown counter name")
	ErrAssetNotFound  = errors.New("media asset not found")
)

// defaultSearchLimit bounds unpaginated search responses.
const defaultSearchLimit = 50

// MediaFile is one uploaded binary handed to the repository by the HTTP layer.
type MediaFile struct {
	Category    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Repository is the façade over the archive's persistence and side channels.
// All dependencies are injected; the uploader and ai client may be nil when
// object storage or the generative-text API are not configured.
type Repository struct {
	store     storage.Store
	uploader  media.Uploader
	publisher event.Publisher
	validator *schema.Validator
	aiClient  *ai.Client
	metrics   *metrics.Metrics

	bucketPrefix string
}

// New wires a Repository from its dependencies. The store is wrapped so every
// persistence operation is observed alongside the upload and AI metrics.
func New(store storage.Store, uploader media.Uploader, publisher event.Publisher, validator *schema.Validator, aiClient *ai.Client, bucketPrefix string) *Repository {
	m := metrics.NewMetrics()
	return &Repository{
		store:        storage.WithMetrics(store, m),
		uploader:     uploader,
		publisher:    publisher,
		validator:    validator,
		aiClient:     aiClient,
		metrics:      m,
		bucketPrefix: bucketPrefix,
	}
}

// newRecordID generates a lowercase ULID. ULIDs sort by creation time, which
// keeps the insertion order of the collection readable.
func newRecordID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String())
}

func newAssetID() string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String())
}

// ageAt computes whole years lived between two YYYY-MM-DD dates, decrementing
// when the day falls before that year's birthday. Returns false when either
// date is unparseable or the order is inverted.
func ageAt(dateOfBirth, at string) (int, bool) {
	born, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return 0, false
	}
	day, err := time.Parse("2006-01-02", at)
	if err != nil || day.Before(born) {
		return 0, false
	}

	age := day.Year() - born.Year()
	if day.Month() < born.Month() || (day.Month() == born.Month() && day.Day() < born.Day()) {
		age--
	}
	return age, true
}

// bucketFor maps an asset category to its object-storage bucket.
func (r *Repository) bucketFor(category string) string {
	return fmt.Sprintf("%s-%s", r.bucketPrefix, category)
}

// Create validates the request, assembles a record with a fresh id and an age
// snapshot, uploads any media, persists, and publishes the created event.
//
// Upload failure semantics differ by slot: a failed profile image upload
// aborts the whole creation, while a failed attachment becomes a local
// placeholder asset so the record itself is not lost.
func (r *Repository) Create(ctx context.Context, req model.CreateRecordRequest, profile *MediaFile, attachments []MediaFile) (*model.MartyrRecord, error) {
	if err := r.validator.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := model.MartyrRecord{
		ID:           newRecordID(),
		PersonalInfo: req.PersonalInfo,
		FamilyInfo:   req.FamilyInfo,
		Biography:    req.Biography,
		Metadata: model.Metadata{
			CreatedAt:    now,
			UpdatedAt:    now,
			CreatedBy:    req.CreatedBy,
			Status:       req.Status,
			Tags:         req.Tags,
			Priority:     req.Priority,
			Verification: model.VerificationPending,
		},
	}
	if record.Metadata.Status == "" {
		record.Metadata.Status = model.StatusActive
	}
	if age, ok := ageAt(req.PersonalInfo.DateOfBirth, now.Format("2006-01-02")); ok {
		record.PersonalInfo.Age = age
	}

	var uploaded []model.MediaAsset

	if profile != nil {
		profile.Category = model.CategoryImage
		asset, err := r.uploadAsset(ctx, record.ID, *profile)
		if err != nil {
			return nil, fmt.Errorf("%w: profile image: %s", ErrUploadFailed, err)
		}
		asset.Alt = record.PersonalInfo.Name
		record.MediaAssets.ProfileImage = asset
		uploaded = append(uploaded, *asset)
	}

	for _, file := range attachments {
		asset, err := r.uploadAsset(ctx, record.ID, file)
		if err != nil {
			slog.Warn("attachment upload failed, recording placeholder",
				"recordId", record.ID, "filename", file.Filename, "error", err)
			placeholder := r.placeholderAsset(file)
			appendAsset(&record.MediaAssets, placeholder)
			continue
		}
		appendAsset(&record.MediaAssets, *asset)
		uploaded = append(uploaded, *asset)
	}

	if err := r.store.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	if err := r.publisher.PublishRecordCreated(ctx, record); err != nil {
		slog.Warn("record created event publish failed", "recordId", record.ID, "error", err)
	}
	for _, asset := range uploaded {
		if err := r.publisher.PublishMediaUploaded(ctx, record.ID, asset); err != nil {
			slog.Warn("media uploaded event publish failed", "assetId", asset.ID, "error", err)
		}
	}

	return &record, nil
}

// uploadAsset stores one file in the category bucket and builds its asset.
func (r *Repository) uploadAsset(ctx context.Context, recordID string, file MediaFile) (*model.MediaAsset, error) {
	if r.uploader == nil {
		return nil, ErrNoUploader
	}

	start := time.Now()
	key := media.ObjectKey(recordID, file.Category, file.Filename, time.Now().UTC())
	result, err := r.uploader.Upload(ctx, media.UploadInput{
		Bucket:      r.bucketFor(file.Category),
		Key:         key,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		Body:        file.Body,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.MediaUploadTotal.WithLabelValues(file.Category, status).Inc()
	r.metrics.MediaUploadDuration.WithLabelValues(file.Category, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	asset := model.MediaAsset{
		ID:        newAssetID(),
		Category:  file.Category,
		Path:      result.Key,
		URL:       result.URL,
		Filename:  media.SanitizeFilename(file.Filename),
		MimeType:  file.ContentType,
		Size:      result.Size,
		SizeBytes: result.SizeBytes,
		CreatedAt: result.CreatedAt,
		Title:     result.Title,
	}
	decorateAsset(&asset)
	return &asset, nil
}

// placeholderAsset records an attachment whose upload failed. The id prefix
// marks it as local-only so downloads are refused later.
func (r *Repository) placeholderAsset(file MediaFile) model.MediaAsset {
	asset := model.MediaAsset{
		ID:        model.LocalAssetPrefix + newAssetID(),
		Category:  file.Category,
		Filename:  media.SanitizeFilename(file.Filename),
		MimeType:  file.ContentType,
		Size:      media.FormatSizeMB(file.Size),
		SizeBytes: file.Size,
		CreatedAt: time.Now().UTC(),
		Title:     media.TitleFromFilename(file.Filename),
	}
	decorateAsset(&asset)
	return asset
}

// decorateAsset fills the category-specific fields: placeholder dimensions on
// images, estimated durations on audio and video.
func decorateAsset(asset *model.MediaAsset) {
	switch asset.Category {
	case model.CategoryImage:
		asset.Width = media.PlaceholderWidth
		asset.Height = media.PlaceholderHeight
	case model.CategoryAudio, model.CategoryVideo:
		asset.Duration = media.EstimateDuration(asset.SizeBytes, asset.MimeType)
		asset.DurationIsEstimate = true
	}
}

// appendAsset places an asset into its category list of the bundle.
func appendAsset(bundle *model.MediaBundle, asset model.MediaAsset) {
	switch asset.Category {
	case model.CategoryImage:
		bundle.Gallery = append(bundle.Gallery, asset)
	case model.CategoryVideo:
		bundle.Videos = append(bundle.Videos, asset)
	case model.CategoryAudio:
		bundle.Audio = append(bundle.Audio, asset)
	default:
		bundle.Documents = append(bundle.Documents, asset)
	}
}

// Get returns one record by id.
func (r *Repository) Get(ctx context.Context, id string) (*model.MartyrRecord, error) {
	return r.store.GetRecord(ctx, id)
}

// List returns the full collection in insertion order.
func (r *Repository) List(ctx context.Context) ([]model.MartyrRecord, error) {
	return r.store.ListRecords(ctx)
}

// Metadata returns the collection-level metadata block.
func (r *Repository) Metadata(ctx context.Context) (model.StoreMetadata, error) {
	return r.store.Metadata(ctx)
}

// Update applies a patch by replacing whole sections. Creation time, media
// assets and statistics survive unchanged, and the age snapshot taken at
// creation is never recomputed.
func (r *Repository) Update(ctx context.Context, id string, patch model.RecordPatch) (*model.MartyrRecord, error) {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PersonalInfo != nil {
		age := record.PersonalInfo.Age
		record.PersonalInfo = *patch.PersonalInfo
		record.PersonalInfo.Age = age
	}
	if patch.FamilyInfo != nil {
		record.FamilyInfo = *patch.FamilyInfo
	}
	if patch.Biography != nil {
		record.Biography = *patch.Biography
	}
	if patch.Metadata != nil {
		if patch.Metadata.Status != nil {
			record.Metadata.Status = *patch.Metadata.Status
		}
		if patch.Metadata.Tags != nil {
			record.Metadata.Tags = *patch.Metadata.Tags
		}
		if patch.Metadata.Priority != nil {
			record.Metadata.Priority = *patch.Metadata.Priority
		}
		if patch.Metadata.Verification != nil {
			record.Metadata.Verification = *patch.Metadata.Verification
		}
	}
	record.Metadata.UpdatedAt = time.Now().UTC()

	if err := r.store.ReplaceRecord(ctx, *record); err != nil {
		return nil, err
	}
	if err := r.publisher.PublishRecordUpdated(ctx, *record); err != nil {
		slog.Warn("record updated event publish failed", "recordId", id, "error", err)
	}
	return record, nil
}

// Delete removes a record and best-effort deletes its stored objects. Object
// deletion failures are logged, never fatal; the record always goes.
func (r *Repository) Delete(ctx context.Context, id string) error {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	if r.uploader != nil {
		for _, asset := range allAssets(record.MediaAssets) {
			if strings.HasPrefix(asset.ID, model.LocalAssetPrefix) || asset.Path == "" {
				continue
			}
			if derr := r.uploader.Delete(ctx, r.bucketFor(asset.Category), asset.Path); derr != nil {
				slog.Warn("stored object cleanup failed", "recordId", id, "assetId", asset.ID, "error", derr)
			}
		}
	}

	if err := r.store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	if err := r.publisher.PublishRecordDeleted(ctx, id); err != nil {
		slog.Warn("record deleted event publish failed", "recordId", id, "error", err)
	}
	return nil
}

// allAssets flattens a bundle into one slice.
func allAssets(bundle model.MediaBundle) []model.MediaAsset {
	var out []model.MediaAsset
	if bundle.ProfileImage != nil {
		out = append(out, *bundle.ProfileImage)
	}
	out = append(out, bundle.Gallery...)
	out = append(out, bundle.Videos...)
	out = append(out, bundle.Audio...)
	out = append(out, bundle.Documents...)
	return out
}

// Search runs a linear scan over the collection. Filters are ANDed; the
// free-text term is ORed across the searchable fields, case-insensitively.
// Total reports the match count before pagination.
func (r *Repository) Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	records, err := r.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	var matched []model.MartyrRecord
	for _, record := range records {
		if matches(record, q) {
			matched = append(matched, record)
		}
	}

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := matched[offset:end]
	if page == nil {
		page = []model.MartyrRecord{}
	}
	return &model.SearchResult{Records: page, Total: total}, nil
}

// matches applies all filters of a query to one record.
func matches(record model.MartyrRecord, q model.SearchQuery) bool {
	if q.Tag != "" && !anyContains(record.Metadata.Tags, q.Tag) {
		return false
	}
	if q.Location != "" {
		loc := strings.ToLower(q.Location)
		if !strings.Contains(strings.ToLower(record.PersonalInfo.PlaceOfBirth), loc) &&
			!strings.Contains(strings.ToLower(record.PersonalInfo.MartyrdomPlace), loc) {
			return false
		}
	}
	if q.Year != 0 {
		year, err := strconv.Atoi(strings.SplitN(record.PersonalInfo.DateOfMartyrdom, "-", 2)[0])
		if err != nil || year != q.Year {
			return false
		}
	}
	if q.Query != "" {
		term := strings.ToLower(q.Query)
		fields := []string{
			record.PersonalInfo.Name,
			record.PersonalInfo.NameTransliterated,
			record.PersonalInfo.NameEnglish,
			record.PersonalInfo.PlaceOfBirth,
			record.PersonalInfo.MartyrdomPlace,
			record.Biography.Occupation,
		}
		hit := false
		for _, f := range fields {
			if f != "" && strings.Contains(strings.ToLower(f), term) {
				hit = true
				break
			}
		}
		if !hit && anyContains(record.Metadata.Tags, term) {
			hit = true
		}
		if !hit {
			return false
		}
	}
	return true
}

// anyContains reports whether any element contains the term, ignoring case.
func anyContains(values []string, term string) bool {
	term = strings.ToLower(term)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// Increment adds a delta to one statistics counter. Delta defaults to 1; a
// candle increment additionally publishes a candle lit event.
func (r *Repository) Increment(ctx context.Context, id, counter string, delta int64) (*model.MartyrRecord, error) {
	switch counter {
	case model.CounterViews, model.CounterDownloads, model.CounterShares, model.CounterCandles:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCounter, counter)
	}
	if delta <= 0 {
		delta = 1
	}

	record, err := r.store.IncrementCounter(ctx, id, counter, delta)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordCounterTotal.WithLabelValues(counter).Add(float64(delta))

	if counter == model.CounterCandles {
		if perr := r.publisher.PublishCandleLit(ctx, id, record.Statistics.Candles); perr != nil {
			slog.Warn("candle event publish failed", "recordId", id, "error", perr)
		}
	}
	return record, nil
}

// AttachMedia uploads one file to an existing record. Unlike attachments at
// creation time, a failed upload here is an error, not a placeholder. When
// asProfile is set the asset replaces the profile image and the previous
// stored object is deleted best-effort.
func (r *Repository) AttachMedia(ctx context.Context, id string, file MediaFile, asProfile bool) (*model.MartyrRecord, *model.MediaAsset, error) {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if asProfile {
		file.Category = model.CategoryImage
	}
	asset, err := r.uploadAsset(ctx, id, file)
	if err != nil {
		if errors.Is(err, ErrNoUploader) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrUploadFailed, err)
	}

	if asProfile {
		if prev := record.MediaAssets.ProfileImage; prev != nil && prev.Path != "" && !strings.HasPrefix(prev.ID, model.LocalAssetPrefix) {
			if derr := r.uploader.Delete(ctx, r.bucketFor(prev.Category), prev.Path); derr != nil {
				slog.Warn("previous profile image cleanup failed", "recordId", id, "error", derr)
			}
		}
		asset.Alt = record.PersonalInfo.Name
		record.MediaAssets.ProfileImage = asset
	} else {
		appendAsset(&record.MediaAssets, *asset)
	}
	record.Metadata.UpdatedAt = time.Now().UTC()

	if err := r.store.ReplaceRecord(ctx, *record); err != nil {
		return nil, nil, err
	}
	if perr := r.publisher.PublishMediaUploaded(ctx, id, *asset); perr != nil {
		slog.Warn("media uploaded event publish failed", "assetId", asset.ID, "error", perr)
	}
	return record, asset, nil
}

// RemoveMedia detaches an asset from a record and best-effort deletes its
// stored object.
func (r *Repository) RemoveMedia(ctx context.Context, id, assetID string) (*model.MartyrRecord, error) {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, ok := detachAsset(&record.MediaAssets, assetID)
	if !ok {
		return nil, ErrAssetNotFound
	}

	if r.uploader != nil && removed.Path != "" && !strings.HasPrefix(removed.ID, model.LocalAssetPrefix) {
		if derr := r.uploader.Delete(ctx, r.bucketFor(removed.Category), removed.Path); derr != nil {
			slog.Warn("stored object cleanup failed", "recordId", id, "assetId", assetID, "error", derr)
		}
	}
	record.Metadata.UpdatedAt = time.Now().UTC()

	if err := r.store.ReplaceRecord(ctx, *record); err != nil {
		return nil, err
	}
	if perr := r.publisher.PublishRecordUpdated(ctx, *record); perr != nil {
		slog.Warn("record updated event publish failed", "recordId", id, "error", perr)
	}
	return record, nil
}

// detachAsset removes an asset by id from whichever slot of the bundle holds
// it and returns the removed asset.
func detachAsset(bundle *model.MediaBundle, assetID string) (model.MediaAsset, bool) {
	if bundle.ProfileImage != nil && bundle.ProfileImage.ID == assetID {
		removed := *bundle.ProfileImage
		bundle.ProfileImage = nil
		return removed, true
	}
	for _, list := range []*[]model.MediaAsset{&bundle.Gallery, &bundle.Videos, &bundle.Audio, &bundle.Documents} {
		for i, asset := range *list {
			if asset.ID == assetID {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return asset, true
			}
		}
	}
	return model.MediaAsset{}, false
}

// DownloadURL returns a time-limited signed URL for an asset and bumps the
// record's download counter. Placeholder assets are refused: there is no
// stored object behind them.
func (r *Repository) DownloadURL(ctx context.Context, id, assetID string, ttl time.Duration) (string, error) {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return "", err
	}

	var found *model.MediaAsset
	for _, asset := range allAssets(record.MediaAssets) {
		if asset.ID == assetID {
			a := asset
			found = &a
			break
		}
	}
	if found == nil {
		return "", ErrAssetNotFound
	}
	if strings.HasPrefix(found.ID, model.LocalAssetPrefix) || found.Path == "" {
		return "", ErrLocalAsset
	}
	if r.uploader == nil {
		return "", ErrNoUploader
	}

	url, err := r.uploader.SignedURL(ctx, r.bucketFor(found.Category), found.Path, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, err)
	}

	if _, ierr := r.store.IncrementCounter(ctx, id, model.CounterDownloads, 1); ierr != nil {
		slog.Warn("download counter increment failed", "recordId", id, "error", ierr)
	} else {
		r.metrics.RecordCounterTotal.WithLabelValues(model.CounterDownloads).Inc()
	}
	return url, nil
}

// SocialPost drafts a social post description for a record through the
// generative-text API. One attempt, no retry.
func (r *Repository) SocialPost(ctx context.Context, id string) (*model.SocialPostResponse, error) {
	record, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.aiClient == nil {
		return nil, ai.ErrNotConfigured
	}

	start := time.Now()
	text, err := r.aiClient.GenerateSocialPost(ctx, *record)
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.AIGenerationTotal.WithLabelValues(status).Inc()
	r.metrics.AIGenerationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	return &model.SocialPostResponse{
		Text:        text,
		Model:       r.aiClient.Model(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
