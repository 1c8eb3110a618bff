// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdiddy/cookbook/internal/recipedb"
	"github.com/pdiddy/cookbook/pkg/types"
)

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// --- recipes ---

func (s *Server) listRecipes(c echo.Context) error {
	f := recipedb.RecipeFilter{
		ID:       types.LocalID(c.QueryParam("id")),
		AuthorID: c.QueryParam("authorId"),
		Query:    c.QueryParam("q"),
	}
	recipes, err := s.store.ListRecipes(c.Request().Context(), f)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, recipes)
}

func (s *Server) getRecipe(c echo.Context) error {
	r, err := s.store.GetRecipe(c.Request().Context(), types.LocalID(c.Param("id")))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) createRecipe(c echo.Context) error {
	var in types.RecipeInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	r, err := s.store.CreateRecipe(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

// updateRecipe replaces the whole record, as json-server's PUT does. An id in
// the body must match the path.
func (s *Server) updateRecipe(c echo.Context) error {
	id := types.LocalID(c.Param("id"))
	var body types.Recipe
	if err := c.Bind(&body); err != nil {
		return err
	}
	if body.ID != "" && body.ID != id {
		return echo.NewHTTPError(http.StatusBadRequest, "body id does not match path")
	}
	r, err := s.store.UpdateRecipe(c.Request().Context(), id, body.Input())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) deleteRecipe(c echo.Context) error {
	if err := s.store.DeleteRecipe(c.Request().Context(), types.LocalID(c.Param("id"))); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

// --- favorites ---

func (s *Server) listFavorites(c echo.Context) error {
	f := recipedb.FavoriteFilter{UserID: c.QueryParam("userId")}
	if raw := c.QueryParam("recipeId"); raw != "" {
		ref, err := types.ParseRecipeRef(raw)
		if err != nil {
			return mapError(err)
		}
		f.RecipeID = ref
	}
	favs, err := s.store.ListFavorites(c.Request().Context(), f)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, favs)
}

type favoriteRequest struct {
	UserID   types.LocalID   `json:"userId"`
	RecipeID types.RecipeRef `json:"recipeId"`
}

// addFavorite answers 201 for a new record and 200 with the existing record
// when the pair is already a favorite.
func (s *Server) addFavorite(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, created, err := s.store.AddFavorite(c.Request().Context(), string(req.UserID), req.RecipeID)
	if err != nil {
		return mapError(err)
	}
	if !created {
		return c.JSON(http.StatusOK, rec)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) deleteFavorite(c echo.Context) error {
	if err := s.store.DeleteFavorite(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

// --- users ---

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signUp(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return err
	}
	u, err := s.store.CreateUser(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return err
	}
	u, err := s.store.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, u)
}
