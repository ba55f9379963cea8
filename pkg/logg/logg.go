package logg

// Field names shared by every zap logger in the module.
const (
	Layer     = "layer"
	Operation = "op"
	Tab       = "tab"
	Key       = "key"
	Rule      = "rule"
	Provider  = "provider"
	Path      = "path"
	TaskID    = "task_id"
	Handle    = "handle"
	URL       = "url"
	Server    = "server"
)
