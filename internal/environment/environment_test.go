/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package environment_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
	"github.com/torrust/tracker-deployer/internal/sshcred"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
)

func minimalConfig() envconfig.Config {
	return envconfig.Config{
		EnvironmentName: names.MustParse("dev"),
		SSHCredentials: sshcred.Credentials{
			PrivateKeyPath: "/keys/id_rsa",
			PublicKeyPath:  "/keys/id_rsa.pub",
			Username:       "torrust",
		},
		Provider: providerconfig.Config{Lxd: &providerconfig.Lxd{ProfileName: "torrust-profile-dev"}},
		Tracker: trackerconfig.Config{
			Database:     trackerconfig.DatabaseSQLite,
			UDPTrackers:  []trackerconfig.UDPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 6969}}},
			HTTPTrackers: []trackerconfig.HTTPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 7070}}},
			API:          trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1212},
			HealthCheck:  trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1313},
		},
	}
}

var _ = Describe("Environment lifecycle", func() {
	It("drives the minimal LXD happy path through every state", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(created.State()).To(Equal(environment.StateCreated))
		Expect(created.RuntimeOutputs().HasInstanceIP()).To(BeFalse())

		provisioning := created.BeginProvisioning("cmd-2")
		Expect(provisioning.State()).To(Equal(environment.StateProvisioning))

		provisioned := provisioning.WithInstanceIP("10.0.0.5").Succeed("cmd-2")
		Expect(provisioned.State()).To(Equal(environment.StateProvisioned))
		Expect(provisioned.RuntimeOutputs().InstanceIP).To(Equal("10.0.0.5"))

		configuring := provisioned.BeginConfiguring("cmd-3")
		configured := configuring.Succeed("cmd-3")
		Expect(configured.State()).To(Equal(environment.StateConfigured))

		releasing := configured.BeginReleasing("cmd-4")
		released := releasing.Succeed("cmd-4")
		Expect(released.State()).To(Equal(environment.StateReleased))

		running := released.Succeed("cmd-5")
		Expect(running.State()).To(Equal(environment.StateRunning))

		destroyed := running.Snapshot().BeginDestroying("cmd-6")
		Expect(destroyed.State()).To(Equal(environment.StateDestroyed))

		history := destroyed.History()
		Expect(history).To(HaveLen(9))
		for i, h := range history {
			Expect(h.Sequence).To(Equal(i + 1))
		}
	})

	It("keeps ProvisionFailed reachable only by Destroy", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())
		failed := created.BeginProvisioning("cmd-2").Fail("cmd-2", "tofu apply exited 1")
		Expect(failed.State()).To(Equal(environment.StateProvisionFailed))

		snap := failed.Snapshot()
		_, err = snap.AsProvisioned()
		Expect(err).To(HaveOccurred())

		destroyed := snap.BeginDestroying("cmd-3")
		Expect(destroyed.State()).To(Equal(environment.StateDestroyed))
	})

	It("transitions to Provisioned with a warning when Register's SSH probe fails", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())

		provisioning := created.BeginRegistering("cmd-2", "10.0.0.255").MarkRegistered()
		Expect(provisioning.RuntimeOutputs().InstanceIP).To(Equal("10.0.0.255"))

		provisioned := provisioning.SucceedWithWarning("cmd-2", "SSH probe failed: dial timeout")
		Expect(provisioned.State()).To(Equal(environment.StateProvisioned))
		Expect(provisioned.IsRegistered()).To(BeTrue())

		history := provisioned.History()
		Expect(history[len(history)-1].Note).To(ContainSubstring("SSH probe failed"))
	})

	It("round-trips losslessly through Encode/Decode, including metadata and history", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())
		provisioned := created.BeginRegistering("cmd-2", "10.0.0.5").MarkRegistered().Succeed("cmd-2")

		raw, err := environment.Encode(provisioned.Snapshot())
		Expect(err).NotTo(HaveOccurred())

		decoded, err := environment.Decode(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded.Name().String()).To(Equal("dev"))
		Expect(decoded.State()).To(Equal(environment.StateProvisioned))
		Expect(decoded.RuntimeOutputs().InstanceIP).To(Equal("10.0.0.5"))
		Expect(decoded.Metadata()).To(HaveKeyWithValue("registered", "true"))
		Expect(decoded.History()).To(HaveLen(len(provisioned.History())))
	})

	It("rejects a schema_version newer than this build supports", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())
		raw, err := environment.Encode(created.Snapshot())
		Expect(err).NotTo(HaveOccurred())

		var fields map[string]interface{}
		Expect(json.Unmarshal(raw, &fields)).To(Succeed())
		fields["schema_version"] = 999
		bumped, err := json.Marshal(fields)
		Expect(err).NotTo(HaveOccurred())

		_, err = environment.Decode(bumped)
		Expect(err).To(HaveOccurred())
	})

	It("enforces the instance_ip-vs-state invariant on decode", func() {
		created, err := environment.New("cmd-1", minimalConfig())
		Expect(err).NotTo(HaveOccurred())
		provisioned := created.BeginProvisioning("cmd-2").Succeed("cmd-2")

		_, err = environment.Encode(provisioned.Snapshot())
		Expect(err).NotTo(HaveOccurred(), "Encode itself never validates, only Decode does")

		raw, err := environment.Encode(provisioned.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		_, err = environment.Decode(raw)
		Expect(err).To(HaveOccurred(), "Provisioned with no instance_ip must be Corrupt on reload")
	})
})
