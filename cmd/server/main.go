package main

import "kammalabel/internal/app"

// @title           Kammalabel API
// @version         1.0
// @description     Интернет-магазин: каталог, корзина, заказы, аккаунты с кодами подтверждения
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	app.Run()
}
