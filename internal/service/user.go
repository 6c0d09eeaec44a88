package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// UserService handles user lookups, avatars and subscriptions
type UserService struct {
	db     *gorm.DB
	images ImageStore
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB, images ImageStore) *UserService {
	return &UserService{db: db, images: images}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// List returns a page of users ordered by id and the total count.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SubscribedTo reports which of authorIDs the viewer follows. An anonymous
// viewer (id 0) follows nobody.
func (s *UserService) SubscribedTo(ctx context.Context, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(authorIDs))
	if viewerID == 0 || len(authorIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", viewerID, authorIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// Subscribe makes userID follow authorID and returns the followed user.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error) {
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("subscription: %w", ErrAlreadyExists)
	}

	follow := models.Follow{UserID: userID, FollowingID: authorID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("subscription: %w", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return author, nil
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.Get(ctx, authorID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription: %w", ErrNotLinked)
	}
	return nil
}

// Subscriptions returns a page of users followed by userID.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	users := []models.User{}
	if err := base.Order("follows.id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return users, total, nil
}

// RecipePreviews loads up to limit newest recipes per author (all when limit <= 0)
// and each author's total recipe count.
func (s *UserService) RecipePreviews(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error) {
	recipes := make(map[uint][]models.Recipe, len(authorIDs))
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return recipes, counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	for _, r := range rows {
		counts[r.AuthorID] = r.Total
	}

	// Rank each author's recipes in SQL so only the previews are read.
	ranked := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY created_at DESC, id DESC) AS preview_rank").
		Where("author_id IN ?", authorIDs)
	q := s.db.WithContext(ctx).Table("(?) AS ranked", ranked)
	if limit > 0 {
		q = q.Where("preview_rank <= ?", limit)
	}

	var all []models.Recipe
	if err := q.Order("author_id, preview_rank").Find(&all).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	for _, r := range all {
		recipes[r.AuthorID] = append(recipes[r.AuthorID], r)
	}
	return recipes, counts, nil
}

// SetAvatar uploads a new avatar and returns its key. The previous image is
// removed after the row is updated.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if dataURI == "" {
		return "", newValidationError("avatar", "This field is required.")
	}

	key, err := s.images.Upload(ctx, "avatars", dataURI)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return "", newValidationError("avatar", err.Error())
		}
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", key).Error; err != nil {
		s.removeImage(ctx, key)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	s.removeImage(ctx, previous)
	return key, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	previous := user.Avatar
	if previous == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	s.removeImage(ctx, previous)
	return nil
}

func (s *UserService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Remove(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove image")
	}
}
