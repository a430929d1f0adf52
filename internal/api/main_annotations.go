// @title           Pinjam API
// @version         1.0
// @description     Navigation state of the Pinjam lending catalog.
// @BasePath        /api/v1
// @securityDefinitions.apikey SessionCookie
// @in              cookie
// @name            pinjam_session
package api
