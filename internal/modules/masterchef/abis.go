package masterchef

// Event signature hashes for the chef contract.
const (
	depositTopic              = "0x90890809c654f11d6e72a28fa60149770a0d11ec6c92319d6ceb2bb0a4ea1a15"
	withdrawTopic             = "0xf279e6a1f5e320cca91135676d9cb6e44ca8a08c0b88342bcdb1144f6511b568"
	emergencyWithdrawTopic    = "0xbb757047c2b5f3974fe26b7c10f732e7bce710b0952a71082702781e62ae0595"
	ownershipTransferredTopic = "0x8be0079c531659141344cd1fd0a4f28419497f9722a3daafe3b4186f6b6457e0"
)

// chefABI carries the events the module parses and the admin functions it
// decodes from successful transactions.
const chefABI = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": true, "name": "pid", "type": "uint256"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "Deposit", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": true, "name": "pid", "type": "uint256"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "Withdraw", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": true, "name": "pid", "type": "uint256"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "EmergencyWithdraw", "type": "event"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "previousOwner", "type": "address"},
    {"indexed": true, "name": "newOwner", "type": "address"}
  ], "name": "OwnershipTransferred", "type": "event"},
  {"inputs": [
    {"name": "_allocPoint", "type": "uint256"},
    {"name": "_lpToken", "type": "address"},
    {"name": "_withUpdate", "type": "bool"}
  ], "name": "add", "outputs": [], "type": "function"},
  {"inputs": [
    {"name": "_pid", "type": "uint256"},
    {"name": "_allocPoint", "type": "uint256"},
    {"name": "_withUpdate", "type": "bool"}
  ], "name": "set", "outputs": [], "type": "function"},
  {"inputs": [{"name": "_migrator", "type": "address"}], "name": "setMigrator", "outputs": [], "type": "function"},
  {"inputs": [{"name": "_pid", "type": "uint256"}], "name": "migrate", "outputs": [], "type": "function"},
  {"inputs": [], "name": "massUpdatePools", "outputs": [], "type": "function"},
  {"inputs": [{"name": "_pid", "type": "uint256"}], "name": "updatePool", "outputs": [], "type": "function"},
  {"inputs": [{"name": "_devaddr", "type": "address"}], "name": "dev", "outputs": [], "type": "function"}
]`
