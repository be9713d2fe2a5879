package mapping

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode writes doc as commented YAML. Every section is written, empty ones
// as []. Secondary fields that are still blank carry the primary value as a
// trailing comment so operators know what to fill in.
func Encode(w io.Writer, doc *Document) error {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addPair(root, KeyPrimaryURL, str(doc.PrimaryURL))
	addPair(root, KeyPrimaryUsername, str(doc.PrimaryUsername))
	addPair(root, KeyPrimaryCAFile, str(doc.PrimaryCAFile))
	k := addPair(root, KeySecondaryURL, hinted(doc.SecondaryURL, doc.PrimaryURL))
	k.HeadComment = "# Please fill in the following properties for the secondary site:"
	addPair(root, KeySecondaryUsername, hinted(doc.SecondaryUsername, doc.PrimaryUsername))
	addPair(root, KeySecondaryCAFile, hinted(doc.SecondaryCAFile, doc.PrimaryCAFile))

	k = addPair(root, SectionStorages, storagesNode(doc.Storages))
	if head := advisoryComment(doc.Advisories); head != "" {
		k.HeadComment = head
	}

	k = addPair(root, SectionClusters, namesNode(doc.Clusters, "cluster"))
	k.HeadComment = "# Mapping for cluster"
	k = addPair(root, SectionAffinityGroups, namesNode(doc.AffinityGroups, "affinity group"))
	k.HeadComment = "# Mapping for affinity group"
	k = addPair(root, SectionAffinityLabels, namesNode(doc.AffinityLabels, "affinity label"))
	k.HeadComment = "# Mapping for affinity label"
	k = addPair(root, SectionDomains, namesNode(doc.Domains, "domain"))
	k.HeadComment = "# Mapping for domain"
	k = addPair(root, SectionRoles, namesNode(doc.Roles, ""))
	k.HeadComment = "# Mapping for role\n# Fill in any roles which should be mapped between sites.\n#- primary_name:\n#  secondary_name:"
	k = addPair(root, SectionNetworks, networksNode(doc.Networks))
	k.HeadComment = "# Mapping for vnic profiles"
	k = addPair(root, SectionLuns, lunsNode(doc.Luns))
	k.HeadComment = "# Mapping for external LUN disks"

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("failed to encode mapping document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode mapping document: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile encodes doc to path, creating the parent directory if needed.
func WriteFile(path string, doc *Document) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}
	return nil
}

func storagesNode(storages []StorageMapping) *yaml.Node {
	seq := seqNode()
	for _, s := range storages {
		m := &yaml.Node{Kind: yaml.MappingNode}
		addPair(m, "dr_domain_type", str(s.DomainType))
		addPair(m, "dr_wipe_after_delete", boolean(s.WipeAfterDelete))
		addPair(m, "dr_backup", boolean(s.Backup))
		addPair(m, "dr_critical_space_action_blocker", integer(s.CriticalSpaceActionBlocker))
		addPair(m, "dr_storage_domain_type", str(s.StorageDomainType))
		addPair(m, "dr_warning_low_space", integer(s.WarningLowSpace))
		addPair(m, "dr_primary_name", str(s.PrimaryName))
		addPair(m, "dr_primary_master_domain", boolean(s.PrimaryMasterDomain))
		addPair(m, "dr_primary_dc_name", str(s.PrimaryDCName))

		switch s.DomainType {
		case "iscsi":
			addPair(m, "dr_discard_after_delete", boolean(s.DiscardAfterDelete))
			addPair(m, "dr_domain_id", str(s.DomainID))
			addPair(m, "dr_primary_address", str(s.PrimaryAddress))
			addPair(m, "dr_primary_port", integer(s.PrimaryPort))
			addPair(m, "dr_primary_target", strList(s.PrimaryTarget))
		case "fcp":
			addPair(m, "dr_discard_after_delete", boolean(s.DiscardAfterDelete))
			addPair(m, "dr_domain_id", str(s.DomainID))
		default:
			addPair(m, "dr_primary_path", str(s.PrimaryPath))
			addPair(m, "dr_primary_address", str(s.PrimaryAddress))
			if s.DomainType == "posixfs" {
				addPair(m, "dr_primary_vfs_type", str(s.PrimaryVfsType))
			}
		}

		k := addPair(m, "dr_secondary_name", hinted(s.SecondaryName, s.PrimaryName))
		k.HeadComment = "# Fill in the empty properties related to the secondary site"
		if s.SecondaryMasterDomain != nil {
			addPair(m, "dr_secondary_master_domain", boolean(*s.SecondaryMasterDomain))
		} else {
			addPair(m, "dr_secondary_master_domain", placeholder(strconv.FormatBool(s.PrimaryMasterDomain)))
		}
		addPair(m, "dr_secondary_dc_name", hinted(s.SecondaryDCName, s.PrimaryDCName))

		switch s.DomainType {
		case "iscsi":
			addPair(m, "dr_secondary_address", hinted(s.SecondaryAddress, s.PrimaryAddress))
			addPair(m, "dr_secondary_port", hintedInt(s.SecondaryPort, s.PrimaryPort))
			if len(s.SecondaryTarget) > 0 {
				k = addPair(m, "dr_secondary_target", strList(s.SecondaryTarget))
			} else {
				k = addPair(m, "dr_secondary_target", placeholder(flowList(s.PrimaryTarget)))
			}
			k.HeadComment = `# target example: ["target1","target2","target3"]`
		case "fcp":
		default:
			addPair(m, "dr_secondary_path", hinted(s.SecondaryPath, s.PrimaryPath))
			addPair(m, "dr_secondary_address", hinted(s.SecondaryAddress, s.PrimaryAddress))
			if s.DomainType == "posixfs" {
				addPair(m, "dr_secondary_vfs_type", hinted(s.SecondaryVfsType, s.PrimaryVfsType))
			}
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func namesNode(mappings []NameMapping, entity string) *yaml.Node {
	seq := seqNode()
	for _, nm := range mappings {
		m := &yaml.Node{Kind: yaml.MappingNode}
		addPair(m, "primary_name", str(nm.PrimaryName))
		k := addPair(m, "secondary_name", hinted(nm.SecondaryName, nm.PrimaryName))
		if entity != "" && nm.SecondaryName == "" && nm.PrimaryName != "" {
			k.HeadComment = fmt.Sprintf("# Fill the correlated %s name in the secondary site for %s '%s'", entity, entity, nm.PrimaryName)
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

const datacenterHint = "# Data Center name is relevant when multiple vnic profiles are maintained.\n" +
	"# please uncomment it in case you have more than one DC."

func networksNode(mappings []NetworkMapping) *yaml.Node {
	seq := seqNode()
	for _, nm := range mappings {
		m := &yaml.Node{Kind: yaml.MappingNode}
		addPair(m, "primary_network_name", str(nm.PrimaryNetworkName))
		k := addPair(m, "primary_profile_name", str(nm.PrimaryProfileName))
		if nm.PrimaryNetworkDC != "" {
			addPair(m, "primary_network_dc", str(nm.PrimaryNetworkDC))
		} else if nm.DatacenterHint != "" {
			k.HeadComment = datacenterHint + "\n# primary_network_dc: " + nm.DatacenterHint
		}
		addPair(m, "primary_profile_id", str(nm.PrimaryProfileID))

		k = addPair(m, "secondary_network_name", hinted(nm.SecondaryNetworkName, nm.PrimaryNetworkName))
		if nm.SecondaryNetworkName == "" {
			k.HeadComment = fmt.Sprintf("# Fill in the correlated vnic profile properties in the secondary site for profile '%s'", nm.PrimaryProfileName)
		}
		k = addPair(m, "secondary_profile_name", hinted(nm.SecondaryProfileName, nm.PrimaryProfileName))
		if nm.SecondaryNetworkDC != "" {
			addPair(m, "secondary_network_dc", str(nm.SecondaryNetworkDC))
		} else if nm.PrimaryNetworkDC != "" {
			addPair(m, "secondary_network_dc", placeholder(nm.PrimaryNetworkDC))
		} else if nm.DatacenterHint != "" {
			k.HeadComment = datacenterHint + "\n# secondary_network_dc: " + nm.DatacenterHint
		}
		addPair(m, "secondary_profile_id", hinted(nm.SecondaryProfileID, nm.PrimaryProfileID))
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func lunsNode(mappings []LunMapping) *yaml.Node {
	seq := seqNode()
	for _, l := range mappings {
		m := &yaml.Node{Kind: yaml.MappingNode}
		addPair(m, "logical_unit_alias", str(l.Alias))
		addPair(m, "logical_unit_description", str(l.Description))
		addPair(m, "wipe_after_delete", boolean(l.WipeAfterDelete))
		addPair(m, "shareable", boolean(l.Shareable))
		addPair(m, "primary_logical_unit_id", str(l.PrimaryLogicalUnitID))
		if l.PrimaryStorageType != "" {
			addPair(m, "primary_storage_type", str(l.PrimaryStorageType))
		}
		if l.isISCSI() {
			addPair(m, "primary_logical_unit_address", str(l.PrimaryAddress))
			addPair(m, "primary_logical_unit_port", integer(l.PrimaryPort))
			addPair(m, "primary_logical_unit_portal", quoted(l.PrimaryPortal))
			addPair(m, "primary_logical_unit_target", str(l.PrimaryTarget))
			if l.PrimaryUsername != "" {
				addPair(m, "primary_logical_unit_username", str(l.PrimaryUsername))
				addPair(m, "primary_logical_unit_password", str(l.PrimaryPassword))
			}
		}

		storageType := l.SecondaryStorageType
		if storageType == "" {
			storageType = l.PrimaryStorageType
		}
		if storageType == "" {
			storageType = StorageTypeUnknown
		}
		k := addPair(m, "secondary_storage_type", str(storageType))
		k.HeadComment = "# Fill in the following properties of the external LUN disk in the secondary site"
		addPair(m, "secondary_logical_unit_id", hinted(l.SecondaryLogicalUnitID, l.PrimaryLogicalUnitID))
		if l.isISCSI() {
			addPair(m, "secondary_logical_unit_address", hinted(l.SecondaryAddress, l.PrimaryAddress))
			addPair(m, "secondary_logical_unit_port", hintedInt(l.SecondaryPort, l.PrimaryPort))
			if l.SecondaryPortal != "" {
				addPair(m, "secondary_logical_unit_portal", quoted(l.SecondaryPortal))
			} else {
				addPair(m, "secondary_logical_unit_portal", placeholder(strconv.Quote(l.PrimaryPortal)))
			}
			addPair(m, "secondary_logical_unit_target", hinted(l.SecondaryTarget, l.PrimaryTarget))
			if l.PrimaryUsername != "" || l.SecondaryUsername != "" {
				addPair(m, "secondary_logical_unit_username", hinted(l.SecondaryUsername, l.PrimaryUsername))
				password := l.SecondaryPassword
				if password == "" {
					password = PasswordPlaceholder
				}
				addPair(m, "secondary_logical_unit_password", str(password))
			}
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func advisoryComment(advisories []Advisory) string {
	var lines []string
	for _, a := range advisories {
		lines = append(lines, "# "+a.Reason)
		lines = append(lines,
			"#- dr_domain_type: "+a.DomainType,
			"#  dr_primary_name: "+a.Name,
			"#  dr_primary_dc_name: "+a.DCName,
		)
	}
	return strings.Join(lines, "\n")
}

func addPair(m *yaml.Node, key string, value *yaml.Node) *yaml.Node {
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	m.Content = append(m.Content, k, value)
	return k
}

func seqNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func str(v string) *yaml.Node {
	if v == "" {
		return null()
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}

func boolean(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func integer(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
}

func strList(values []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle})
	}
	return seq
}

func flowList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, strconv.Quote(v))
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// placeholder is a null value with hint as trailing comment.
func placeholder(hint string) *yaml.Node {
	n := null()
	if hint != "" {
		n.LineComment = "# " + hint
	}
	return n
}

func hinted(value, hint string) *yaml.Node {
	if value != "" {
		return str(value)
	}
	return placeholder(hint)
}

func hintedInt(value, hint int64) *yaml.Node {
	if value != 0 {
		return integer(value)
	}
	if hint == 0 {
		return null()
	}
	return placeholder(strconv.FormatInt(hint, 10))
}
