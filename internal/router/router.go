// File: internal/router/router.go
package router

import (
	"digital-menu/internal/cache"
	"digital-menu/internal/database"
	"digital-menu/internal/handler"
	"digital-menu/internal/handler/auth"
	"digital-menu/internal/handler/categories"
	"digital-menu/internal/handler/menuitems"
	"digital-menu/internal/handler/tables"
	"digital-menu/internal/handler/users"
	"digital-menu/internal/handler/wishlists"
	"digital-menu/internal/middleware"
	"digital-menu/internal/service"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Deps 是路由需要的所有元件，由 cmd/service 建立
type Deps struct {
	DB        database.DB
	Cache     cache.Cache
	Sessions  *service.Sessions
	Wishlists wishlists.Lists
	QRFetcher tables.ImageFetcher
	Workers   tables.Submitter
	QR        tables.QRConfig
	Auth      auth.Options
	MediaDir  string
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	db := d.DB
	requireAuth := middleware.RequireAuth(d.Sessions)
	requireAdmin := middleware.RequireAdmin(d.Sessions)

	e.Static(handler.MediaPrefix, d.MediaDir)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/ping", handler.PingHandler(db, d.Cache))
	api.GET("/photos", handler.PhotosHandler(d.MediaDir))

	// 登入 / 登出 / session
	api.POST("/auth/login", auth.LoginHandler(db, d.Sessions, d.Auth))
	api.POST("/auth/logout", auth.LogoutHandler(d.Auth))
	api.GET("/auth/session", auth.SessionHandler(), requireAuth)

	// 公開菜單
	api.GET("/categories", categories.ListCategoriesHandler(db))
	api.GET("/menu-items", menuitems.ListPublicMenuItemsHandler(db))
	api.GET("/menu", menuitems.MenuHandler(db))
	api.GET("/tables/:table_number", tables.GetTableByNumberHandler(db))
	api.GET("/table-qrs/:id/qr.png", tables.QRImageHandler(db, d.QRFetcher))

	// 收藏清單，以客戶端產生的 uuid 識別
	apiWishlists := api.Group("/wishlists/:wishlist_id")
	apiWishlists.GET("", wishlists.GetWishlistHandler(db, d.Wishlists))
	apiWishlists.DELETE("", wishlists.ClearWishlistHandler(d.Wishlists))
	apiWishlists.PUT("/items/:item_id", wishlists.AddItemHandler(db, d.Wishlists))
	apiWishlists.DELETE("/items/:item_id", wishlists.RemoveItemHandler(d.Wishlists))

	// 當前使用者
	apiUsersMe := api.Group("/users/me", requireAuth)
	apiUsersMe.GET("", users.GetMyUserHandler(db))
	apiUsersMe.PATCH("/password", users.UpdateMyPasswordHandler(db))

	// 管理員專屬
	admin := api.Group("/admin", requireAdmin)

	adminCategories := admin.Group("/categories")
	adminCategories.GET("", categories.ListCategoriesHandler(db))
	adminCategories.POST("", categories.CreateCategoryHandler(db))
	adminCategories.GET("/:id", categories.GetCategoryHandler(db))
	adminCategories.PUT("/:id", categories.UpdateCategoryHandler(db))
	adminCategories.DELETE("/:id", categories.DeleteCategoryHandler(db))

	adminMenuItems := admin.Group("/menu-items")
	adminMenuItems.GET("", menuitems.ListMenuItemsHandler(db))
	adminMenuItems.POST("", menuitems.CreateMenuItemHandler(db))
	adminMenuItems.GET("/:id", menuitems.GetMenuItemHandler(db))
	adminMenuItems.PUT("/:id", menuitems.UpdateMenuItemHandler(db))
	adminMenuItems.DELETE("/:id", menuitems.DeleteMenuItemHandler(db))

	adminTables := admin.Group("/table-qrs")
	adminTables.GET("", tables.ListTableQRsHandler(db))
	adminTables.POST("", tables.CreateTableQRHandler(db, d.QR, d.Workers, d.QRFetcher))
	adminTables.GET("/:id", tables.GetTableQRHandler(db))
	adminTables.PUT("/:id", tables.UpdateTableQRHandler(db, d.QR, d.Workers, d.QRFetcher))
	adminTables.DELETE("/:id", tables.DeleteTableQRHandler(db))

	adminUsers := admin.Group("/users")
	adminUsers.GET("", users.ListUsersHandler(db))
	adminUsers.POST("", users.CreateUserHandler(db))
	adminUsers.GET("/:id", users.GetUserHandler(db))
	adminUsers.DELETE("/:id", users.DeleteUserHandler(db))
}
