// Package google provides the cached, user-consented OAuth token used for
// Gmail and Drive.
//
// The token is obtained out of band (any OAuth consent tool that writes an
// oauth2.Token as JSON) and stored in the user cache directory. Access
// tokens are refreshed through the stored refresh token, and refreshed
// tokens are written back so the next process start reuses them.
package google
