package data

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	httpClient "github.com/soliluna/soliluna/internal/client/api"
	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// ListIngredients возвращает ингредиенты, с сервера или из кэша
func (s *Service) ListIngredients(ctx context.Context) ([]models.Ingredient, Source, error) {
	return fetchList(ctx, s, models.TypeIngredients, s.apiClient.ListIngredients)
}

// GetIngredient возвращает один ингредиент
func (s *Service) GetIngredient(ctx context.Context, id string) (*models.Ingredient, Source, error) {
	return fetchOne(ctx, s, models.TypeIngredients, id, s.apiClient.GetIngredient)
}

// CreateIngredient создаёт ингредиент; офлайн — ставит мутацию в outbox
// и оптимистично кладёт запись в кэш.
func (s *Service) CreateIngredient(ctx context.Context, req api.IngredientCreate) (*models.Ingredient, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid ingredient: %w", err)
	}

	item, err := s.apiClient.CreateIngredient(ctx, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeIngredients, item.ID, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPost, "/api/ingredients", req,
		models.TypeIngredients, req.ID); qerr != nil {
		return nil, StatusQueued, qerr
	}

	now := models.FormatTimestamp(time.Now())
	local := &models.Ingredient{
		ID: req.ID, Name: req.Name,
		PkgSize: req.PkgSize, PkgUnit: req.PkgUnit, PkgPrice: req.PkgPrice,
		CreatedAt: now, UpdatedAt: now,
	}
	s.putOptimistic(ctx, models.TypeIngredients, local.ID, local)
	return local, StatusQueued, nil
}

// UpdateIngredient обновляет ингредиент. Конфликт (409) возвращается
// вызывающему: в APIError.Data лежит текущая серверная версия.
func (s *Service) UpdateIngredient(ctx context.Context, id string, req api.IngredientUpdate) (*models.Ingredient, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid ingredient: %w", err)
	}

	item, err := s.apiClient.UpdateIngredient(ctx, id, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeIngredients, id, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPut, "/api/ingredients/"+url.PathEscape(id), req,
		models.TypeIngredients, id); qerr != nil {
		return nil, StatusQueued, qerr
	}

	local := &models.Ingredient{
		ID: id, Name: req.Name,
		PkgSize: req.PkgSize, PkgUnit: req.PkgUnit, PkgPrice: req.PkgPrice,
		UpdatedAt: req.UpdatedAt,
	}
	s.putOptimistic(ctx, models.TypeIngredients, id, local)
	return local, StatusQueued, nil
}

// DeleteIngredient удаляет ингредиент
func (s *Service) DeleteIngredient(ctx context.Context, id string) (SaveStatus, error) {
	return s.deleteWithFallback(ctx, models.TypeIngredients, id,
		"/api/ingredients/"+url.PathEscape(id), s.apiClient.DeleteIngredient)
}

// ListRecipes возвращает рецепты с рассчитанной стоимостью
func (s *Service) ListRecipes(ctx context.Context) ([]models.Recipe, Source, error) {
	return fetchList(ctx, s, models.TypeRecipes, s.apiClient.ListRecipes)
}

// GetRecipe возвращает один рецепт
func (s *Service) GetRecipe(ctx context.Context, id string) (*models.Recipe, Source, error) {
	return fetchOne(ctx, s, models.TypeRecipes, id, s.apiClient.GetRecipe)
}

// CreateRecipe создаёт рецепт
func (s *Service) CreateRecipe(ctx context.Context, req api.RecipeCreate) (*models.Recipe, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid recipe: %w", err)
	}

	item, err := s.apiClient.CreateRecipe(ctx, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeRecipes, item.ID, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPost, "/api/recipes", req,
		models.TypeRecipes, req.ID); qerr != nil {
		return nil, StatusQueued, qerr
	}

	now := models.FormatTimestamp(time.Now())
	local := &models.Recipe{
		ID: req.ID, Name: req.Name,
		YieldAmount: req.YieldAmount, YieldUnit: req.YieldUnit,
		CreatedAt: now, UpdatedAt: now,
	}
	s.putOptimistic(ctx, models.TypeRecipes, local.ID, local)
	return local, StatusQueued, nil
}

// UpdateRecipe обновляет рецепт и его список ингредиентов
func (s *Service) UpdateRecipe(ctx context.Context, id string, req api.RecipeUpdate) (*models.Recipe, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid recipe: %w", err)
	}

	item, err := s.apiClient.UpdateRecipe(ctx, id, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeRecipes, id, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPut, "/api/recipes/"+url.PathEscape(id), req,
		models.TypeRecipes, id); qerr != nil {
		return nil, StatusQueued, qerr
	}

	// Офлайн стоимость не пересчитываем: сервер отдаст её после replay.
	local := &models.Recipe{
		ID: id, Name: req.Name,
		YieldAmount: req.YieldAmount, YieldUnit: req.YieldUnit,
		UpdatedAt: req.UpdatedAt,
	}
	for _, u := range req.Ingredients {
		local.Ingredients = append(local.Ingredients, models.IngredientUsageResolved{
			IngredientUsage: u, Name: "", Cost: 0,
		})
	}
	s.putOptimistic(ctx, models.TypeRecipes, id, local)
	return local, StatusQueued, nil
}

// DeleteRecipe удаляет рецепт
func (s *Service) DeleteRecipe(ctx context.Context, id string) (SaveStatus, error) {
	return s.deleteWithFallback(ctx, models.TypeRecipes, id,
		"/api/recipes/"+url.PathEscape(id), s.apiClient.DeleteRecipe)
}

// ListDishes возвращает блюда
func (s *Service) ListDishes(ctx context.Context) ([]models.Dish, Source, error) {
	return fetchList(ctx, s, models.TypeDishes, s.apiClient.ListDishes)
}

// GetDish возвращает одно блюдо
func (s *Service) GetDish(ctx context.Context, id string) (*models.Dish, Source, error) {
	return fetchOne(ctx, s, models.TypeDishes, id, s.apiClient.GetDish)
}

// CreateDish создаёт блюдо
func (s *Service) CreateDish(ctx context.Context, req api.DishCreate) (*models.Dish, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid dish: %w", err)
	}

	item, err := s.apiClient.CreateDish(ctx, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeDishes, item.ID, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPost, "/api/dishes", req,
		models.TypeDishes, req.ID); qerr != nil {
		return nil, StatusQueued, qerr
	}

	multiplier := req.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	now := models.FormatTimestamp(time.Now())
	local := &models.Dish{
		ID: req.ID, Name: req.Name, Pax: req.Pax,
		DeliveryDate: req.DeliveryDate, Notes: req.Notes, Multiplier: multiplier,
		CreatedAt: now, UpdatedAt: now,
	}
	s.putOptimistic(ctx, models.TypeDishes, local.ID, local)
	return local, StatusQueued, nil
}

// UpdateDish обновляет блюдо и оба списка использований
func (s *Service) UpdateDish(ctx context.Context, id string, req api.DishUpdate) (*models.Dish, SaveStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, StatusSynced, fmt.Errorf("invalid dish: %w", err)
	}

	item, err := s.apiClient.UpdateDish(ctx, id, req)
	if err == nil {
		s.putOptimistic(ctx, models.TypeDishes, id, item)
		return item, StatusSynced, nil
	}
	if !httpClient.IsConnectivityError(err) {
		return nil, StatusSynced, err
	}

	if qerr := s.enqueueMutation(ctx, http.MethodPut, "/api/dishes/"+url.PathEscape(id), req,
		models.TypeDishes, id); qerr != nil {
		return nil, StatusQueued, qerr
	}

	local := &models.Dish{
		ID: id, Name: req.Name, Pax: req.Pax,
		DeliveryDate: req.DeliveryDate, Notes: req.Notes, Multiplier: req.Multiplier,
		UpdatedAt: req.UpdatedAt,
	}
	s.putOptimistic(ctx, models.TypeDishes, id, local)
	return local, StatusQueued, nil
}

// DeleteDish удаляет блюдо
func (s *Service) DeleteDish(ctx context.Context, id string) (SaveStatus, error) {
	return s.deleteWithFallback(ctx, models.TypeDishes, id,
		"/api/dishes/"+url.PathEscape(id), s.apiClient.DeleteDish)
}
