/*
Package nodeid provides a structured representation for the identifiers used
throughout the system: registry keys such as `timer.progress` and block
identities such as `progress1`.

The format is a dot-separated sequence of segments. A segment is made of
letters, digits, `_` and `-`, and may not be a lone `-`. Registry keys are
namespaced by the plugin that contributes them, so `translate.display` has the
namespace `translate` and the name `display`. Block identities are single
segment addresses, which keeps them usable as HCL block labels.

This package enforces the identifier schema and centralizes all formatting and
parsing logic.
*/
package nodeid
