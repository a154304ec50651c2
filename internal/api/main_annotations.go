// @title           elogbook API
// @version         1.0
// @description     Electronic logbook backend. Entries carry file attachments that are fetched through single-use download tokens.
// @BasePath        /
package api
