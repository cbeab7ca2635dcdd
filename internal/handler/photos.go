package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"digital-menu/internal/api"

	"github.com/labstack/echo/v4"
)

// MediaPrefix 是靜態檔案掛載的 URL 前綴
const MediaPrefix = "/media"

var readDir = os.ReadDir

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// cleanDirectory 回傳 media 目錄下的相對路徑，含 .. 或絕對路徑時回傳 false
func cleanDirectory(dir string) (string, bool) {
	dir = strings.TrimSpace(filepath.ToSlash(dir))
	if dir == "" {
		return "", true
	}
	if strings.HasPrefix(dir, "/") {
		return "", false
	}
	for _, seg := range strings.Split(dir, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := path.Clean(dir)
	if cleaned == "." {
		return "", true
	}
	return cleaned, true
}

// PhotosHandler 列出 media 目錄下的圖片
// @Summary     List photos
// @Description 列出 media 目錄（或其子目錄）內的 jpg / png / webp 檔案，回傳可直接使用的 URL
// @Tags        media
// @Produce     json
// @Param       directory query    string false "子目錄，例如 menu"
// @Success     200       {object} api.PhotosResponse
// @Failure     400       {object} api.ErrorResponse
// @Failure     500       {object} api.ErrorResponse
// @Router      /photos [get]
func PhotosHandler(mediaDir string) echo.HandlerFunc {
	return func(c echo.Context) error {
		dir, ok := cleanDirectory(c.QueryParam("directory"))
		if !ok {
			return BadRequest(c, "invalid directory")
		}

		entries, err := readDir(filepath.Join(mediaDir, filepath.FromSlash(dir)))
		if errors.Is(err, fs.ErrNotExist) {
			return c.JSON(http.StatusOK, api.PhotosResponse{Photos: []string{}})
		}
		if err != nil {
			return InternalError(c, err, "read media directory")
		}

		photos := []string{}
		for _, entry := range entries {
			if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			photos = append(photos, path.Join(MediaPrefix, dir, entry.Name()))
		}
		sort.Strings(photos)
		return c.JSON(http.StatusOK, api.PhotosResponse{Photos: photos})
	}
}
