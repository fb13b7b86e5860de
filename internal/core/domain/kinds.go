package domain

type ResourceKind string

const (
	KindStack  ResourceKind = "stack"
	KindRepo   ResourceKind = "repo"
	KindServer ResourceKind = "server"
)

// AllKinds is the fixed reconciliation order: stacks first, then repos, then servers.
var AllKinds = []ResourceKind{KindStack, KindRepo, KindServer}

func (rk ResourceKind) String() string {
	return string(rk)
}

// ListRequest is the read-API request type that lists resources of this kind.
func (rk ResourceKind) ListRequest() string {
	switch rk {
	case KindStack:
		return "ListStacks"
	case KindRepo:
		return "ListRepos"
	case KindServer:
		return "ListServers"
	}
	return ""
}

// GetRequest is the read-API request type that fetches one resource in full.
func (rk ResourceKind) GetRequest() string {
	switch rk {
	case KindStack:
		return "GetStack"
	case KindRepo:
		return "GetRepo"
	case KindServer:
		return "GetServer"
	}
	return ""
}

// ParamKey names the request parameter that carries the resource name.
func (rk ResourceKind) ParamKey() string {
	return string(rk)
}

// Plural is used for output keys and report headings.
func (rk ResourceKind) Plural() string {
	switch rk {
	case KindStack:
		return "stacks"
	case KindRepo:
		return "repos"
	case KindServer:
		return "servers"
	}
	return string(rk) + "s"
}

// HasServerRef reports whether resources of this kind carry a server assignment.
func (rk ResourceKind) HasServerRef() bool {
	return rk == KindStack || rk == KindRepo
}
