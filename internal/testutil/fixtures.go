package testutil

// DiamondHCL declares Factory and Router that both use Utils, and an App
// that uses both. Utils must be deployed exactly once.
const DiamondHCL = `
module "Utils" {
  library "Utils" {}
  outputs = { utils = library.Utils }
}

module "Factory" {
  uses = ["Utils"]
  contract "Factory" {
    libraries = { Utils = module.Utils.utils }
  }
  outputs = { factory = contract.Factory }
}

module "Router" {
  uses = ["Utils"]
  contract "Router" {
    libraries = { Utils = module.Utils.utils }
  }
  outputs = { router = contract.Router }
}

module "App" {
  uses = ["Factory", "Router"]
  contract "App" {
    args = [module.Factory.factory, module.Router.router]
  }
  outputs = { app = contract.App }
}
`

// ChainHCL is a linear A -> B -> C chain with one call on C.
const ChainHCL = `
module "Chain" {
  contract "A" {}
  contract "B" {
    args = [contract.A]
  }
  contract "C" {
    args = [contract.B, param.label]
  }
  call "init" {
    target = contract.C
    args   = [contract.A]
  }
  outputs = { c = contract.C }
}
`

// RouterGrantsHCL mirrors the exchange router wiring: a role store, eight
// handlers and eight explicitly tagged grants.
const RouterGrantsHCL = `
module "RoleStore" {
  contract "RoleStore" {}
  outputs = { roleStore = contract.RoleStore }
}

module "Handlers" {
  uses = ["RoleStore"]
  contract "SupplyHandler"   { args = [module.RoleStore.roleStore] }
  contract "WithdrawHandler" { args = [module.RoleStore.roleStore] }
  contract "BorrowHandler"   { args = [module.RoleStore.roleStore] }
  contract "DepositHandler"  { args = [module.RoleStore.roleStore] }
  contract "RepayHandler"    { args = [module.RoleStore.roleStore] }
  contract "RedeemHandler"   { args = [module.RoleStore.roleStore] }
  contract "PoolFactory"     { args = [module.RoleStore.roleStore] }
  contract "Config"          { args = [module.RoleStore.roleStore] }
  outputs = {
    supplyHandler   = contract.SupplyHandler
    withdrawHandler = contract.WithdrawHandler
    borrowHandler   = contract.BorrowHandler
    depositHandler  = contract.DepositHandler
    repayHandler    = contract.RepayHandler
    redeemHandler   = contract.RedeemHandler
    poolFactory     = contract.PoolFactory
    config          = contract.Config
  }
}

module "ExchangeRouter" {
  uses = ["RoleStore", "Handlers"]
  contract "ExchangeRouter" {
    args = [module.RoleStore.roleStore, module.Handlers.supplyHandler]
  }
  grant "grantRole1" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.supplyHandler
    role    = "CONTROLLER"
  }
  grant "grantRole2" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.withdrawHandler
    role    = "CONTROLLER"
  }
  grant "grantRole3" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.borrowHandler
    role    = "CONTROLLER"
  }
  grant "grantRole4" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.depositHandler
    role    = "CONTROLLER"
  }
  grant "grantRole5" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.repayHandler
    role    = "CONTROLLER"
  }
  grant "grantRole6" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.redeemHandler
    role    = "CONTROLLER"
  }
  grant "grantRole7" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.poolFactory
    role    = "CONTROLLER"
  }
  grant "grantRole8" {
    grantor = module.RoleStore.roleStore
    grantee = module.Handlers.config
    role    = role("CONTROLLER")
  }
  outputs = { exchangeRouter = contract.ExchangeRouter }
}
`
