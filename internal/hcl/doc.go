// Package hcl provides the HCL implementation of the dag file codec and the
// settings file format defined in the `config` package. Parsing goes through
// hclparse and gohcl; rendering goes through hclwrite so written files keep
// canonical formatting.
package hcl
