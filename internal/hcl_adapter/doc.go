// Package hcl_adapter loads module definitions written in HCL into the
// format-agnostic config model.
//
// Expressions are not evaluated against other modules here. A static
// traversal such as `module.RoleStore.roleStore` becomes a config.Reference
// and anything else is evaluated as a literal with the `role` and `keccak256`
// functions available.
package hcl_adapter
