package clinicapi

import (
	"context"
	"net/url"

	"careline/internal/models"
)

const (
	opCategories = "categories"
	opServices   = "services"
	opDoctors    = "doctors"
)

// Categories lists service categories. Catalog reads are cacheable: the
// catalog changes rarely and is the hottest read path in the bot.
func (c *Client) Categories(ctx context.Context, userID int64) ([]models.Category, error) {
	var categories []models.Category
	if c.readCache(ctx, "catalog:categories", &categories) {
		return categories, nil
	}
	if err := c.doGet(ctx, userID, "/categories", opCategories, &categories); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "catalog:categories", categories)
	return categories, nil
}

// Category fetches one category.
func (c *Client) Category(ctx context.Context, userID int64, id string) (*models.Category, error) {
	var category models.Category
	if err := c.doGet(ctx, userID, "/categories/"+url.PathEscape(id), opCategories, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// ServicesByCategory lists services in a category.
func (c *Client) ServicesByCategory(ctx context.Context, userID int64, categoryID string) ([]models.Service, error) {
	cacheKey := "catalog:services:" + categoryID
	var services []models.Service
	if c.readCache(ctx, cacheKey, &services) {
		return services, nil
	}
	if err := c.doGet(ctx, userID, "/services/category/"+url.PathEscape(categoryID), opServices, &services); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, services)
	return services, nil
}

// Service fetches one service.
func (c *Client) Service(ctx context.Context, userID int64, id string) (*models.Service, error) {
	var service models.Service
	if err := c.doGet(ctx, userID, "/services/"+url.PathEscape(id), opServices, &service); err != nil {
		return nil, err
	}
	return &service, nil
}

// Doctors returns the doctor roster with availability descriptors.
func (c *Client) Doctors(ctx context.Context, userID int64) ([]models.Doctor, error) {
	var doctors []models.Doctor
	if c.readCache(ctx, "catalog:doctors", &doctors) {
		return doctors, nil
	}
	if err := c.doGet(ctx, userID, "/doctors", opDoctors, &doctors); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "catalog:doctors", doctors)
	return doctors, nil
}
