/*
Package vault implements Vault contract which keeps custodial GAS vaults.

Every vault is identified by a 20-byte ID chosen by its creator and has a
single owner set on initialization. Anyone can deposit GAS into a vault, only
the owner can withdraw it. All deposited GAS is held by the contract account,
so GAS balance of the contract always equals to the sum of vault balances.

Deposits are made either with deposit method or with a plain GAS transfer to
the contract with the vault ID as a data argument.

# Contract notifications

Initialize notification. This notification is produced when a new vault is
created.

	Initialize:
	  - name: vault
	    type: Hash160
	  - name: owner
	    type: Hash160

Deposit notification. This notification is produced when GAS is credited to
the vault.

	Deposit:
	  - name: from
	    type: Hash160
	  - name: vault
	    type: Hash160
	  - name: amount
	    type: Integer

Withdraw notification. This notification is produced when the owner takes GAS
from the vault.

	Withdraw:
	  - name: vault
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer

# Contract storage scheme

	v<vault ID> -> serialized Vault structure
	b<vault ID> -> vault balance, absent for empty vaults
	total       -> sum of all vault balances
*/
package vault
