// Package yaml_adapter loads module definitions and parameter files written
// in YAML.
//
// Definitions mirror the HCL structure. Because YAML has no expression
// syntax, references are strings with a "ref:" prefix, for example
// "ref:module.RoleStore.roleStore". Items are a list so that declaration order
// survives decoding:
//
//	modules:
//	  - id: PoolFactory
//	    uses: [RoleStore]
//	    items:
//	      - contract: PoolFactory
//	        args: ["ref:module.RoleStore.roleStore"]
//	      - grant: grantRole7
//	        grantor: ref:module.RoleStore.roleStore
//	        grantee: ref:contract.PoolFactory
//	        role: CONTROLLER
//	    outputs:
//	      poolFactory: ref:contract.PoolFactory
package yaml_adapter
