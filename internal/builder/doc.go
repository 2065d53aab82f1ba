/*
Package builder turns loaded module definitions into the flat set of actions
a deployment consists of.

Construction is a memoized recursion keyed by module id:

 1. Sub-modules are evaluated first, in `uses` order. A module that was
    already evaluated in this build is returned from the cache, so a module
    shared by several parents (a diamond) contributes its actions exactly
    once and every parent sees the same *ModuleResult.

 2. Action ids are allocated for the module's own declarations in source
    order. Allocating before resolving lets a declaration refer to one that
    appears later in the same module.

 3. References are resolved and every action gets its dependency list and a
    global declaration sequence number, which the scheduler uses to break
    ties.

Building is pure: it never talks to the network or the journal. All errors are
fatal and reported before anything executes.
*/
package builder
