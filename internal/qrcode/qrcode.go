// Package qrcode 產生桌號 QR code 的圖片網址，並代理、快取外部繪圖服務回傳的 PNG
package qrcode

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultRenderURL = "https://api.qrserver.com/v1/create-qr-code/"
	Size             = "200x200"
)

var ErrInvalidTableNumber = errors.New("qrcode: table number must be positive")

// MenuURL 是掃描 QR code 後開啟的點餐頁
func MenuURL(publicBase string, tableNumber int) string {
	return strings.TrimRight(publicBase, "/") + "/menu?table=" + strconv.Itoa(tableNumber)
}

// BuildURL 組出繪圖服務的網址，格式為 <render>?size=200x200&data=<menu url>
func BuildURL(renderURL, publicBase string, tableNumber int) (string, error) {
	if tableNumber <= 0 {
		return "", ErrInvalidTableNumber
	}
	u, err := url.Parse(renderURL)
	if err != nil {
		return "", fmt.Errorf("BuildURL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("BuildURL: render url %q is not absolute", renderURL)
	}
	u.RawQuery = "size=" + Size + "&data=" + url.QueryEscape(MenuURL(publicBase, tableNumber))
	return u.String(), nil
}
