package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a dag file may contain.
type fileRoot struct {
	Dags   []*dagBlock `hcl:"dag,block"`
	Remain hcl.Body    `hcl:",remain"`
}

type dagBlock struct {
	Key         string             `hcl:"key,label"`
	Doc         string             `hcl:"doc,optional"`
	Title       string             `hcl:"title,optional"`
	Blocks      []*blockBlock      `hcl:"block,block"`
	Connections []*connectionBlock `hcl:"connection,block"`
}

type blockBlock struct {
	ID        string          `hcl:"id,label"`
	Type      string          `hcl:"type"`
	Name      string          `hcl:"name,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock holds arbitrary attributes, evaluated later.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type connectionBlock struct {
	Source   string          `hcl:"source,label"`
	Target   string          `hcl:"target,label"`
	Mappings []*mappingBlock `hcl:"mapping,block"`
}

type mappingBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// settingsRoot decodes a settings file.
type settingsRoot struct {
	Blocks []*settingsBlock `hcl:"block,block"`
	Remain hcl.Body         `hcl:",remain"`
}

type settingsBlock struct {
	Key  string   `hcl:"key,label"`
	Body hcl.Body `hcl:",remain"`
}
