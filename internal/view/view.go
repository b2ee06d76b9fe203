// Package view holds the HTML templates and the view models they render.
package view

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	LoginTemplate  = "login.html"
	AssetsTemplate = "assets.html"
	ErrorTemplate  = "error.html"
)

// AppTitle is the product name shown in the header and page titles.
const AppTitle = "IT 设备资产管理系统"

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Option is one entry of a select input.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// LoginPage is the input of the login template.
type LoginPage struct {
	Title   string
	Email   string
	Errors  map[string]string
	Message string
}

// NewLoginPage returns the login view with the given inline errors.
func NewLoginPage(email string, errs map[string]string, message string) LoginPage {
	return LoginPage{Title: AppTitle, Email: email, Errors: errs, Message: message}
}

// ErrorPage is the input of the generic error template.
type ErrorPage struct {
	Title   string
	Message string
	Retry   string
}

// LoadFailedMessage is shown when the list cannot be loaded.
const LoadFailedMessage = "加载失败，请重试"

// AuthUnavailableMessage is shown when the session cannot be checked.
const AuthUnavailableMessage = "登录服务暂不可用，请稍后重试"

// NewErrorPage returns the generic error view. retry is the URL offered to
// try again.
func NewErrorPage(message, retry string) ErrorPage {
	return ErrorPage{Title: AppTitle, Message: message, Retry: retry}
}
