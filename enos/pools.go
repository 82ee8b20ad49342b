package enos

// DefaultContracts returns the curated validator pools of the ENO programme
func DefaultContracts() []string {
	return []string{
		"everstake.poolv1.near",
		"luganodes.pool.near",
		"dacmpool.poolv1.near",
		"stakecito.poolv1.near",
		"frensvalidator.poolv1.near",
		"grassets.poolv1.near",
		"centurion.poolv1.near",
		"piertwopool.poolv1.near",
		"staking4all.poolv1.near",
		"colossus.poolv1.near",
		"northstake.poolv1.near",
		"stakin.poolv1.near",
		"senseinode.poolv1.near",
		"nodes.poolv1.near",
		"alphanodes.poolv1.near",
		"stablelab.poolv1.near",
		"stakecraft.poolv1.near",
		"alumlabs.poolv1.near",
		"staketab.poolv1.near",
		"nacioncrypto-parceros.poolv1.near",
		"pairpoint.poolv1.near",
		"bcw-technologies.poolv1.near",
	}
}

// DefaultLiquidStakingAccounts returns the accounts whose stake counts as liquid
func DefaultLiquidStakingAccounts() []string {
	return []string{
		"meta-pool.near",
		"linear-protocol.near",
	}
}
