// Package filestack builds request URLs for the Filestack file API.
//
// CreateURL dispatches on an Action and produces the exact URL shape the remote
// service expects:
//
//	delete, overwrite  https://www.filestackapi.com/api/file/{handle}?key={apikey}
//	upload             https://www.filestackapi.com/api/store/{location}?key={apikey}&filename=...
//	transform          https://cdn.filestackcontent.com/{apikey}[/security=policy:P,signature:S]/{tasks}/{handle}
//
// # Basic Usage
//
//	url, err := filestack.CreateURL(filestack.ActionDelete, apiKey,
//	    filestack.Options{}.With("handle", "6GKA0wnQWO7tKaGu2YXA"), nil)
//
// Signed URLs take a Signer, usually a *security.Security:
//
//	sec, err := security.New(secret, security.WithCalls(security.CallRemove))
//	url, err := filestack.CreateURL(filestack.ActionDelete, apiKey, opts, sec)
//
// Transform URLs carry the policy and signature as a path segment; every other
// action is signed with query parameters appended by Signer.SignURL.
//
// The subpackages provide the pieces around the builder: security (policies and
// signatures), transform (task strings), client (HTTP transport), config and api
// (a small URL-signing service).
package filestack
