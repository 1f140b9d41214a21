/*
Package config loads and merges the project-local and global .roostrc
files into a types.RouteTable. Project mappings win over global ones on a
domain collision; ports are the union of both, defaulting to {80,443}
only when neither file lists any.
*/
package config
