package filestack

const (
	// APIURL is the base URL for file store, overwrite and delete requests.
	APIURL = "https://www.filestackapi.com/api"
	// ProcessingURL is the base URL for transformation requests.
	ProcessingURL = "https://cdn.filestackcontent.com"
	// CDNURL is the base URL files are served from.
	CDNURL = "https://cdn.filestackcontent.com"

	// DefaultLocation is the storage location used when an upload names none.
	DefaultLocation = "S3"
)

// Option keys understood by CreateURL. Keys are matched after lowercasing.
const (
	// OptHandle handle
	OptHandle = "handle"
	// OptTasksStr tasks_str
	OptTasksStr = "tasks_str"
	// OptLocation location
	OptLocation = "location"
	// OptFilename filename
	OptFilename = "filename"
	// OptMimetype mimetype
	OptMimetype = "mimetype"
	// OptPath path
	OptPath = "path"
	// OptContainer container
	OptContainer = "container"
	// OptAccess access
	OptAccess = "access"
	// OptBase64Decode base64decode
	OptBase64Decode = "base64decode"
)

// uploadOptions are the only options forwarded on the store query string.
var uploadOptions = []string{
	OptFilename, OptMimetype, OptPath, OptContainer, OptAccess, OptBase64Decode,
}
