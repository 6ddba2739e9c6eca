// Package httpapp provides the HTTP server for Pulsefeed.
//
//	@title						Pulsefeed API
//	@version					1.0
//	@description				A social posting backend: accounts, posts, likes, and comments.
//	@description
//	@description				## Authentication Flow
//	@description
//	@description				Every post, like, and comment operation requires a signed token.
//	@description
//	@description				### Step 1: Register (First Time Only)
//	@description				```bash
//	@description				curl -X POST /api/users -d '{
//	@description				  "name": "Jane Doe",
//	@description				  "email": "jane@example.com",
//	@description				  "password": "hunter42"
//	@description				}'
//	@description				# Returns: {"token": "TOKEN"}
//	@description				```
//	@description
//	@description				### Step 2: Log In
//	@description				```bash
//	@description				curl -X POST /api/auth -d '{"email": "jane@example.com", "password": "hunter42"}'
//	@description				# Returns: {"token": "TOKEN"}
//	@description				```
//	@description
//	@description				### Step 3: Use the Token
//	@description				Include the token in the x-auth-token header on every protected request:
//	@description				```bash
//	@description				curl -X POST /api/posts -H "x-auth-token: TOKEN" -d '{"text": "hello"}'
//	@description				```
//
//	@contact.name				Pulsefeed
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	TokenAuth
//	@in							header
//	@name						x-auth-token
//	@description				Signed token from /api/users or /api/auth
//
//	@tag.name					Users
//	@tag.description			Register, log in, and fetch the authenticated user.
//
//	@tag.name					Posts
//	@tag.description			Create, browse, and delete posts. Posts are listed newest first.
//
//	@tag.name					Likes
//	@tag.description			Like or unlike posts. One like per user per post.
//
//	@tag.name					Comments
//	@tag.description			Comment on posts. Only a comment's author may remove it.
//
//	@tag.name					Stats
//	@tag.description			Aggregate site counters.
package httpapp
