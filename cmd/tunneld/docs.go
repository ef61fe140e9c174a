package main

// General API documentation for swaggo.
//
// @title           tunneld API
// @version         1.0
// @description     Status and control API of the cloudflared tunnel endpoint reconciler.
//
// @BasePath  /
//
// @schemes http
